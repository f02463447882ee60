package xendit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bali-advisory/internal/domain/billing"
)

func TestCreateInvoice(t *testing.T) {
	var got createInvoiceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/invoices", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "xnd_test", user)
		assert.Empty(t, pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"inv_1","external_id":"premium-7-abc","status":"PENDING","invoice_url":"https://checkout.xendit.co/web/inv_1"}`))
	}))
	defer srv.Close()

	c := NewClient("xnd_test", srv.URL, time.Second)
	inv, err := c.CreateInvoice(context.Background(), billing.InvoiceRequest{
		ExternalID: "premium-7-abc",
		Amount:     313425,
		Currency:   "IDR",
		PayerEmail: "made@example.com",
		Metadata:   map[string]string{billing.MetaUserID: "7", billing.MetaTier: "premium"},
	})
	require.NoError(t, err)
	assert.Equal(t, "inv_1", inv.ID)
	assert.Equal(t, "https://checkout.xendit.co/web/inv_1", inv.URL)

	assert.Equal(t, int64(313425), got.Amount)
	assert.Equal(t, "IDR", got.Currency)
	assert.Equal(t, "7", got.Metadata[billing.MetaUserID])
	require.NotNil(t, got.Customer)
	assert.Equal(t, "made@example.com", got.Customer.Email)
}

func TestCreateInvoiceAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"API_VALIDATION_ERROR","message":"amount too small"}`))
	}))
	defer srv.Close()

	c := NewClient("xnd_test", srv.URL, time.Second)
	_, err := c.CreateInvoice(context.Background(), billing.InvoiceRequest{ExternalID: "x", Amount: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_VALIDATION_ERROR")
}

func TestVerifyCallbackToken(t *testing.T) {
	assert.True(t, VerifyCallbackToken("secret", "secret"))
	assert.False(t, VerifyCallbackToken("Secret", "secret"))
	assert.False(t, VerifyCallbackToken("", "secret"))
	assert.False(t, VerifyCallbackToken("secret", ""))
}

func TestParseInvoiceCallback(t *testing.T) {
	body := []byte(`{"id":"inv_9","external_id":"vip-3-x","status":"PAID","amount":785925,"paid_amount":785925,
		"payer_email":"ketut@example.com","metadata":{"user_id":3,"product_key":"vip","tier":"vip"}}`)

	cb, err := ParseInvoiceCallback(body)
	require.NoError(t, err)

	ev := cb.Event()
	assert.Equal(t, ProviderName, ev.Provider)
	assert.Equal(t, "inv_9:PAID", ev.EventID)
	assert.Equal(t, int64(785925), ev.Amount)

	uid, ok := ev.UserID()
	assert.True(t, ok)
	assert.Equal(t, uint(3), uid)
	assert.Equal(t, "vip", ev.ProductKey())

	_, err = ParseInvoiceCallback([]byte(`{"status":"PAID"}`))
	assert.Error(t, err)
	_, err = ParseInvoiceCallback([]byte(`not json`))
	assert.Error(t, err)
}

func TestCallbackWithoutInvoiceIDKeysOnExternalID(t *testing.T) {
	first, err := ParseInvoiceCallback([]byte(`{"external_id":"premium-42-a","status":"PAID","amount":313425,"metadata":{"user_id":42}}`))
	require.NoError(t, err)
	second, err := ParseInvoiceCallback([]byte(`{"external_id":"premium-43-b","status":"PAID","amount":313425,"metadata":{"user_id":43}}`))
	require.NoError(t, err)

	a, b := first.Event(), second.Event()
	assert.Equal(t, "premium-42-a:PAID", a.EventID)
	assert.Equal(t, "premium-43-b:PAID", b.EventID)
	assert.NotEqual(t, a.IdempotencyKey(), b.IdempotencyKey())
}

func TestCreateInvoiceRejectsIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"inv_2","status":"PENDING"}`))
	}))
	defer srv.Close()

	c := NewClient("xnd_test", srv.URL, time.Second)
	_, err := c.CreateInvoice(context.Background(), billing.InvoiceRequest{ExternalID: "x", Amount: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoice_url")
}
