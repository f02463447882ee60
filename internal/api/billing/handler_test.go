package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bali-advisory/internal/api/apierr"
	"bali-advisory/internal/app/http/middleware"
	domainbilling "bali-advisory/internal/domain/billing"
	"bali-advisory/internal/domain/users"
	"bali-advisory/internal/repository"
	"bali-advisory/internal/service"
)

const secret = "billing-secret"

type stubProvider struct {
	err  error
	last domainbilling.InvoiceRequest
}

func (p *stubProvider) Name() string { return "xendit" }

func (p *stubProvider) CreateInvoice(_ context.Context, req domainbilling.InvoiceRequest) (*domainbilling.HostedInvoice, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.last = req
	return &domainbilling.HostedInvoice{ID: "inv-1", ExternalID: req.ExternalID, URL: "https://checkout.xendit.co/web/inv-1"}, nil
}

type stubRates struct{}

func (stubRates) USDToIDR(context.Context) (float64, bool) { return 15750, false }

type stubUsers map[uint]users.User

func (s stubUsers) FindByID(_ context.Context, id uint) (*users.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

type stubPayments struct {
	created []domainbilling.Payment
}

func (s *stubPayments) Create(_ context.Context, p *domainbilling.Payment) error {
	s.created = append(s.created, *p)
	return nil
}

func (s *stubPayments) ListByUser(_ context.Context, userID uint) ([]domainbilling.Payment, error) {
	var out []domainbilling.Payment
	for _, p := range s.created {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func setup(provider *stubProvider) (*gin.Engine, *stubPayments) {
	gin.SetMode(gin.TestMode)
	payments := &stubPayments{}
	svc := service.NewCheckoutService(provider, stubRates{}, payments, "IDR", "https://bali.example", zerolog.Nop())
	h := NewHandler(svc, stubRates{}, stubUsers{5: {ID: 5, Email: "buyer@example.com", Name: "Kadek"}}, payments, zerolog.Nop())

	r := gin.New()
	r.GET("/products", h.ListProducts)
	authed := r.Group("/", middleware.Auth(secret))
	authed.POST("/checkout", h.CreateCheckout)
	authed.GET("/payments", h.GetPaymentHistory)
	return r, payments
}

func post(r *gin.Engine, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func buyerToken(t *testing.T) string {
	t.Helper()
	tok, err := middleware.IssueToken(secret, time.Hour, users.User{ID: 5, Email: "buyer@example.com", Role: users.RoleUser})
	require.NoError(t, err)
	return tok
}

func TestCheckoutPremium(t *testing.T) {
	provider := &stubProvider{}
	r, payments := setup(provider)

	w := post(r, "/checkout", `{"product_key":"premium"}`, buyerToken(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res service.CheckoutResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "https://checkout.xendit.co/web/inv-1", res.CheckoutURL)
	assert.Equal(t, int64(313425), res.Amount)
	assert.Equal(t, "IDR", res.Currency)
	assert.True(t, strings.HasPrefix(res.ExternalID, "premium-5-"))

	assert.Equal(t, "5", provider.last.Metadata[domainbilling.MetaUserID])
	assert.Equal(t, "premium", provider.last.Metadata[domainbilling.MetaTier])
	require.Len(t, payments.created, 1)
}

func TestCheckoutUnknownProduct(t *testing.T) {
	r, _ := setup(&stubProvider{})

	w := post(r, "/checkout", `{"product_key":"gold"}`, buyerToken(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body apierr.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apierr.CodeUnknownProduct, body.Code)
}

func TestCheckoutProviderFailure(t *testing.T) {
	r, payments := setup(&stubProvider{err: errors.New("dial tcp: i/o timeout")})

	w := post(r, "/checkout", `{"product_key":"vip"}`, buyerToken(t))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"code":"PAYMENT_ERROR","message":"payment system error"}`, w.Body.String())
	assert.Empty(t, payments.created)
}

func TestCheckoutRequiresAuth(t *testing.T) {
	r, _ := setup(&stubProvider{})
	assert.Equal(t, http.StatusUnauthorized, post(r, "/checkout", `{"product_key":"premium"}`, "").Code)
}

func TestListProducts(t *testing.T) {
	r, _ := setup(&stubProvider{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Products []productDTO `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Products, 3)
	assert.Equal(t, "premium", body.Products[0].Key)
	assert.Equal(t, int64(313425), body.Products[0].AmountIDR)
	assert.Equal(t, "$19.90", body.Products[0].DisplayPrice)
}
