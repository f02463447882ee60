package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sent []Message
}

func (r *recorder) Send(_ context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestSendVerification(t *testing.T) {
	rec := &recorder{}
	m := New(rec, "hello@example.com", "https://bali.example")

	require.NoError(t, m.SendVerification(context.Background(), "made@example.com", "Made", "tok123"))
	require.Len(t, rec.sent, 1)
	assert.Equal(t, []string{"made@example.com"}, rec.sent[0].To)
	assert.Contains(t, rec.sent[0].HTML, "https://bali.example/verify?token=tok123")
	assert.Contains(t, rec.sent[0].HTML, "Hi Made")
}

func TestLeadNotificationEscapesInput(t *testing.T) {
	rec := &recorder{}
	m := New(rec, "hello@example.com", "https://bali.example")

	err := m.SendLeadNotification(context.Background(), "sales@example.com", LeadEmail{
		LeadID:  4,
		Source:  "contact",
		Name:    "Ketut",
		Email:   "ketut@example.com",
		Message: "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	msg := rec.sent[0]
	assert.Equal(t, "ketut@example.com", msg.ReplyTo)
	assert.Equal(t, "New contact lead: Ketut", msg.Subject)
	assert.NotContains(t, msg.HTML, "<script>")
}

func TestPaymentConfirmationAttachesReceipt(t *testing.T) {
	rec := &recorder{}
	m := New(rec, "hello@example.com", "https://bali.example")

	err := m.SendPaymentConfirmation(context.Background(), PaymentEmail{
		To:           "nyoman@example.com",
		Name:         "Nyoman",
		ProductName:  "Premium membership",
		Tier:         "premium",
		AmountIDR:    "Rp 313.425",
		DisplayPrice: "$19.90",
		ExternalID:   "premium-1-abc",
	}, []byte("%PDF-1.4"))
	require.NoError(t, err)

	msg := rec.sent[0]
	assert.Contains(t, msg.HTML, "Rp 313.425")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "receipt-premium-1-abc.pdf", msg.Attachments[0].Name)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
}

func TestScoutingConfirmationHasNoTierLine(t *testing.T) {
	rec := &recorder{}
	m := New(rec, "hello@example.com", "https://bali.example")

	require.NoError(t, m.SendPaymentConfirmation(context.Background(), PaymentEmail{
		To: "a@example.com", ProductName: "Scouting fee", ExternalID: "scoutingFee-1-x",
	}, nil))
	assert.Contains(t, rec.sent[0].HTML, "scouting trip")
	assert.Empty(t, rec.sent[0].Attachments)
}

func TestSendPasswordReset(t *testing.T) {
	rec := &recorder{}
	m := New(rec, "hello@example.com", "https://bali.example")

	require.NoError(t, m.SendPasswordReset(context.Background(), "wayan@example.com", "Wayan", "r3s3t"))
	assert.Equal(t, "Reset your password", rec.sent[0].Subject)
	assert.Contains(t, rec.sent[0].HTML, "https://bali.example/reset-password?token=r3s3t")
}
