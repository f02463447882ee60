package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bali-advisory/internal/domain/billing"
	"bali-advisory/internal/domain/plans"
	"bali-advisory/internal/domain/users"
	"bali-advisory/internal/repository"
)

type memUsers struct {
	byID    map[uint]*users.User
	updates map[uint]map[string]interface{}
}

func (m *memUsers) List(context.Context) ([]users.User, error) {
	var out []users.User
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) FindByID(_ context.Context, id uint) (*users.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateTier(_ context.Context, id uint, tier plans.Tier) error {
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.SubscriptionTier = tier
	return nil
}

func (m *memUsers) Update(_ context.Context, id uint, updates map[string]interface{}) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	if code, ok := updates["affiliate_code"].(string); ok {
		for otherID, u := range m.byID {
			if otherID != id && u.AffiliateCode != nil && *u.AffiliateCode == code {
				return repository.ErrDuplicate
			}
		}
	}
	if m.updates == nil {
		m.updates = map[uint]map[string]interface{}{}
	}
	m.updates[id] = updates
	return nil
}

func (m *memUsers) CountByTier(context.Context) (map[plans.Tier]int64, error) {
	out := map[plans.Tier]int64{}
	for _, u := range m.byID {
		out[u.SubscriptionTier]++
	}
	return out, nil
}

type memPayments struct {
	list []billing.Payment
}

func (m memPayments) List(context.Context) ([]billing.Payment, error) { return m.list, nil }

func (m memPayments) ListByUser(_ context.Context, id uint) ([]billing.Payment, error) {
	var out []billing.Payment
	for _, p := range m.list {
		if p.UserID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memPayments) PaidRevenue(_ context.Context, since *time.Time) (int64, error) {
	var total int64
	for _, p := range m.list {
		if p.Status != billing.StatusPaid || p.PaidAt == nil {
			continue
		}
		if since != nil && p.PaidAt.Before(*since) {
			continue
		}
		total += p.AmountIDR
	}
	return total, nil
}

func (m memPayments) ListCommissions(_ context.Context, code string) ([]billing.AffiliateCommission, error) {
	return []billing.AffiliateCommission{
		{AffiliateCode: code, ExternalID: "vip-1-x", AmountIDR: 78592, Status: "owed"},
		{AffiliateCode: code, ExternalID: "vip-2-y", AmountIDR: 78592, Status: "paid_out"},
	}, nil
}

var now = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

func setup() (*gin.Engine, *memUsers) {
	gin.SetMode(gin.TestMode)
	old := now.AddDate(0, -3, 0)
	recent := now.AddDate(0, 0, -2)
	code := "TAKEN"
	u := &memUsers{byID: map[uint]*users.User{
		1: {ID: 1, Email: "a@example.com", SubscriptionTier: plans.TierFree},
		2: {ID: 2, Email: "b@example.com", SubscriptionTier: plans.TierPremium},
		3: {ID: 3, Email: "c@example.com", SubscriptionTier: plans.TierVIP, AffiliateCode: &code},
		4: {ID: 4, Email: "d@example.com", SubscriptionTier: ""},
	}}
	p := memPayments{list: []billing.Payment{
		{ID: 1, UserID: 2, ProductKey: "premium", AmountIDR: 313425, Status: billing.StatusPaid, PaidAt: &old},
		{ID: 2, UserID: 3, ProductKey: "vip", AmountIDR: 785925, Status: billing.StatusPaid, PaidAt: &recent},
		{ID: 3, UserID: 1, ProductKey: "vip", AmountIDR: 785925, Status: billing.StatusPending},
	}}

	h := NewHandler(u, p, zerolog.Nop())
	h.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/admin/users", h.ListAllUsers)
	r.GET("/admin/users/:id", h.GetUserDetails)
	r.PATCH("/admin/users/:id/tier", h.SetUserTier)
	r.PUT("/admin/users/:id/affiliate-code", h.SetAffiliateCode)
	r.GET("/admin/payments", h.ListAllPayments)
	r.GET("/admin/stats", h.GetAdminStats)
	r.GET("/admin/commissions", h.ListCommissions)
	return r, u
}

func call(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetAdminStats(t *testing.T) {
	r, _ := setup()
	w := call(r, http.MethodGet, "/admin/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var stats AdminStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(4), stats.TotalUsers)
	assert.Equal(t, int64(313425+785925), stats.TotalRevenue)
	assert.Equal(t, int64(785925), stats.RecentRevenue)
	assert.Equal(t, map[string]int64{"free": 2, "premium": 1, "vip": 1}, stats.UsersPerTier)
}

func TestSetUserTier(t *testing.T) {
	r, u := setup()

	w := call(r, http.MethodPatch, "/admin/users/3/tier", `{"tier":"premium"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, plans.TierPremium, u.byID[3].SubscriptionTier)

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPatch, "/admin/users/3/tier", `{"tier":"gold"}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPatch, "/admin/users/abc/tier", `{"tier":"vip"}`).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodPatch, "/admin/users/99/tier", `{"tier":"vip"}`).Code)
}

func TestSetAffiliateCode(t *testing.T) {
	r, u := setup()

	w := call(r, http.MethodPut, "/admin/users/2/affiliate-code", `{"code":" bali-friends "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BALI-FRIENDS", u.updates[2]["affiliate_code"])

	assert.Equal(t, http.StatusConflict, call(r, http.MethodPut, "/admin/users/2/affiliate-code", `{"code":"taken"}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPut, "/admin/users/2/affiliate-code", `{"code":"a b"}`).Code)
}

func TestListAllUsersAndPayments(t *testing.T) {
	r, _ := setup()

	w := call(r, http.MethodGet, "/admin/users?tier=vip", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []AdminUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "c@example.com", list[0].Email)

	w = call(r, http.MethodGet, "/admin/payments?status=paid", "")
	require.Equal(t, http.StatusOK, w.Code)
	var payments []AdminPayment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payments))
	assert.Len(t, payments, 2)
	assert.Equal(t, "Rp 313.425", payments[0].FormattedIDR)
}

func TestGetUserDetails(t *testing.T) {
	r, _ := setup()

	w := call(r, http.MethodGet, "/admin/users/4", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		User     AdminUser      `json:"user"`
		Payments []AdminPayment `json:"payments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, plans.TierFree, resp.User.Tier)
	assert.Empty(t, resp.Payments)

	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/admin/users/77", "").Code)
}

func TestListCommissions(t *testing.T) {
	r, _ := setup()
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/admin/commissions", "").Code)

	w := call(r, http.MethodGet, "/admin/commissions?code=taken", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"owed_idr":78592`)
}
