package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bali-advisory/internal/domain/leads"
	"bali-advisory/internal/repository"
	"bali-advisory/internal/service"
)

type memStore struct {
	mu    sync.Mutex
	items []leads.Lead
}

func (m *memStore) Create(_ context.Context, l *leads.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = uint(len(m.items) + 1)
	l.CreatedAt = time.Now()
	m.items = append(m.items, *l)
	return nil
}

func (m *memStore) ExistsSince(_ context.Context, email, source string, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.items {
		if l.Email == email && l.Source == source && l.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uint, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == 0 || int(id) > len(m.items) {
		return repository.ErrNotFound
	}
	m.items[id-1].Status = status
	return nil
}

func (m *memStore) List(_ context.Context, status string, _, _ int) ([]leads.Lead, int64, error) {
	var out []leads.Lead
	for _, l := range m.items {
		if status == "" || l.Status == status {
			out = append(out, l)
		}
	}
	return out, int64(len(out)), nil
}

type countingEvents struct {
	captured int
	changed  int
}

func (e *countingEvents) LeadCaptured(context.Context, uint) { e.captured++ }

func (e *countingEvents) LeadStatusChanged(context.Context, uint, string) { e.changed++ }

func setup() (*gin.Engine, *memStore, *countingEvents) {
	gin.SetMode(gin.TestMode)
	store := &memStore{}
	events := &countingEvents{}
	h := NewHandler(service.NewLeadService(store, events, zerolog.Nop()))

	r := gin.New()
	r.POST("/leads", h.Submit)
	r.GET("/admin/leads", h.List)
	r.PATCH("/admin/leads/:id", h.UpdateStatus)
	return r, store, events
}

func call(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitLead(t *testing.T) {
	r, store, events := setup()

	w := call(r, http.MethodPost, "/leads", `{"name":"Ayu","email":"ayu@example.com","budget":"150k","source":"contact"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Success bool `json:"success"`
		LeadID  uint `json:"lead_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, uint(1), body.LeadID)
	assert.Equal(t, leads.StatusNew, store.items[0].Status)
	assert.Equal(t, 1, events.captured)
}

func TestSubmitLeadRejectsBadEmailBeforeAnySideEffect(t *testing.T) {
	r, store, events := setup()

	w := call(r, http.MethodPost, "/leads", `{"name":"Ayu","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BAD_REQUEST")
	assert.Empty(t, store.items)
	assert.Zero(t, events.captured)
}

func TestSubmitLeadDuplicate(t *testing.T) {
	r, _, events := setup()
	body := `{"name":"Ayu","email":"ayu@example.com","source":"newsletter"}`

	require.Equal(t, http.StatusOK, call(r, http.MethodPost, "/leads", body).Code)
	w := call(r, http.MethodPost, "/leads", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, events.captured)
}

func TestAdminLeadStatus(t *testing.T) {
	r, store, events := setup()
	require.Equal(t, http.StatusOK, call(r, http.MethodPost, "/leads", `{"name":"Ayu","email":"ayu@example.com"}`).Code)

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPatch, "/admin/leads/1", `{"status":"won"}`).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodPatch, "/admin/leads/9", `{"status":"lost"}`).Code)

	require.Equal(t, http.StatusOK, call(r, http.MethodPatch, "/admin/leads/1", `{"status":"qualified"}`).Code)
	assert.Equal(t, leads.StatusQualified, store.items[0].Status)
	assert.Equal(t, 1, events.changed)

	w := call(r, http.MethodGet, "/admin/leads?status=qualified", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}
