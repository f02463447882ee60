package properties

import (
	"encoding/json"
	"testing"

	"bali-advisory/internal/domain/plans"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProperty() Property {
	return Property{
		ID:         7,
		Slug:       "canggu-villa-3br",
		Title:      "3BR villa in Canggu",
		Area:       "Canggu",
		Type:       TypeVilla,
		PriceUSD:   decimal.RequireFromString("385000"),
		LeaseYears: 25,
		Bedrooms:   3,
		ImageURLs:  "https://cdn.example.com/a.jpg, https://cdn.example.com/b.jpg",
		Status:     StatusPublished,
	}
}

func TestViewForFreeTierNeverCarriesPrice(t *testing.T) {
	v := ViewFor(sampleProperty(), plans.TierFree, true)
	assert.True(t, v.Locked)
	assert.Nil(t, v.PriceUSD)
	require.NotNil(t, v.Upsell)

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "385000")
	assert.Contains(t, string(raw), `"price_usd":null`)
}

func TestViewForPaidTiers(t *testing.T) {
	for _, tier := range []plans.Tier{plans.TierPremium, plans.TierVIP} {
		v := ViewFor(sampleProperty(), tier, false)
		assert.False(t, v.Locked, tier)
		require.NotNil(t, v.PriceUSD, tier)
		assert.True(t, v.PriceUSD.Equal(decimal.RequireFromString("385000")))
		assert.Empty(t, v.Description)
		assert.Len(t, v.Images, 2)
	}
}

func TestVisibleTo(t *testing.T) {
	p := sampleProperty()
	assert.True(t, p.VisibleTo(plans.TierFree))

	p.PremiumOnly = true
	assert.False(t, p.VisibleTo(plans.TierFree))
	assert.False(t, p.VisibleTo(plans.TierPremium))
	assert.True(t, p.VisibleTo(plans.TierVIP))
}

func TestMakeSlug(t *testing.T) {
	assert.Equal(t, "3br-villa-canggu", MakeSlug("3BR Villa!", "Canggu"))
	assert.Equal(t, "land-plot-tabanan", MakeSlug("  Land -- plot ", "Tabanan"))
	assert.Equal(t, "property", MakeSlug("***", ""))

	s := UniqueSlug("Ocean view", "Uluwatu")
	assert.Regexp(t, `^ocean-view-uluwatu-[0-9a-f]{8}$`, s)
	assert.NotEqual(t, s, UniqueSlug("Ocean view", "Uluwatu"))
}
