package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmailValid(t *testing.T) {
	assert.True(t, IsEmailValid("made@villa-bali.co.id"))
	assert.False(t, IsEmailValid("not-an-email"))
	assert.False(t, IsEmailValid("a@b"))
	assert.False(t, IsEmailValid(""))
}

func TestNormalizeAndValidate(t *testing.T) {
	l := Lead{Name: "  Wayan ", Email: " Wayan@Example.COM "}
	l.Normalize()
	assert.Equal(t, "Wayan", l.Name)
	assert.Equal(t, "wayan@example.com", l.Email)
	assert.Equal(t, SourceContact, l.Source)
	assert.Equal(t, StatusNew, l.Status)
	assert.NoError(t, l.Validate())

	bad := Lead{Name: "Ketut", Email: "not-an-email"}
	bad.Normalize()
	assert.ErrorIs(t, bad.Validate(), ErrInvalidEmail)

	noName := Lead{Email: "ketut@example.com"}
	noName.Normalize()
	assert.ErrorIs(t, noName.Validate(), ErrNameRequired)

	badSource := Lead{Name: "Ketut", Email: "ketut@example.com", Source: "billboard"}
	badSource.Normalize()
	assert.ErrorIs(t, badSource.Validate(), ErrInvalidSource)
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusNew, StatusContacted, StatusQualified, StatusLost} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("won"))
}
