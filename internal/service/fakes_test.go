package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"bali-advisory/internal/domain/billing"
	"bali-advisory/internal/domain/leads"
	"bali-advisory/internal/domain/plans"
	"bali-advisory/internal/domain/users"
	"bali-advisory/internal/infra/mailer"
	"bali-advisory/internal/notify"
	"bali-advisory/internal/repository"
)

type fakeProvider struct {
	requests []billing.InvoiceRequest
	err      error
}

func (f *fakeProvider) Name() string { return "xendit" }

func (f *fakeProvider) CreateInvoice(_ context.Context, req billing.InvoiceRequest) (*billing.HostedInvoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return &billing.HostedInvoice{ID: "inv_" + req.ExternalID, ExternalID: req.ExternalID, URL: "https://checkout.xendit.co/web/" + req.ExternalID}, nil
}

type fixedRate struct {
	rate     float64
	fallback bool
}

func (f fixedRate) USDToIDR(context.Context) (float64, bool) { return f.rate, f.fallback }

type memUsers struct {
	mu          sync.Mutex
	users       map[uint]*users.User
	tierUpdates []plans.Tier
	updateErr   error
	findErr     error
}

func newMemUsers(us ...users.User) *memUsers {
	m := &memUsers{users: map[uint]*users.User{}}
	for i := range us {
		u := us[i]
		m.users[u.ID] = &u
	}
	return m
}

func (m *memUsers) FindByID(_ context.Context, id uint) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByAffiliateCode(_ context.Context, code string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.AffiliateCode != nil && *u.AffiliateCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) UpdateTier(_ context.Context, id uint, tier plans.Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tierUpdates = append(m.tierUpdates, tier)
	if m.updateErr != nil {
		return m.updateErr
	}
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.SubscriptionTier = tier
	return nil
}

type memLedger struct {
	mu          sync.Mutex
	payments    map[string]*billing.Payment
	events      map[string]bool
	commissions []billing.AffiliateCommission
}

func newMemLedger() *memLedger {
	return &memLedger{payments: map[string]*billing.Payment{}, events: map[string]bool{}}
}

func (m *memLedger) Create(_ context.Context, p *billing.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payments[p.ExternalID] = &cp
	return nil
}

func (m *memLedger) UpdateStatus(_ context.Context, externalID, status, payerEmail string, paidAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[externalID]
	if !ok || p.Status == billing.StatusPaid {
		return nil
	}
	p.Status = status
	if payerEmail != "" {
		p.PayerEmail = payerEmail
	}
	p.PaidAt = paidAt
	return nil
}

func (m *memLedger) MarkEventProcessed(_ context.Context, provider, eventID, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := provider + "/" + eventID
	if m.events[key] {
		return false, nil
	}
	m.events[key] = true
	return true, nil
}

func (m *memLedger) UnmarkEventProcessed(_ context.Context, provider, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, provider+"/"+eventID)
	return nil
}

func (m *memLedger) CreateCommission(_ context.Context, c *billing.AffiliateCommission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commissions = append(m.commissions, *c)
	return nil
}

type recordingEffects struct {
	sales []notify.Sale
}

func (r *recordingEffects) SaleCompleted(_ context.Context, s notify.Sale) {
	r.sales = append(r.sales, s)
}

type memLeads struct {
	mu       sync.Mutex
	leads    []leads.Lead
	existing bool
}

func (m *memLeads) Create(_ context.Context, l *leads.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = uint(len(m.leads) + 1)
	m.leads = append(m.leads, *l)
	return nil
}

func (m *memLeads) ExistsSince(context.Context, string, string, time.Time) (bool, error) {
	return m.existing, nil
}

func (m *memLeads) UpdateStatus(_ context.Context, id uint, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(id) > len(m.leads) || id == 0 {
		return repository.ErrNotFound
	}
	m.leads[id-1].Status = status
	return nil
}

func (m *memLeads) List(context.Context, string, int, int) ([]leads.Lead, int64, error) {
	return m.leads, int64(len(m.leads)), nil
}

type leadEvents struct {
	captured []uint
	changed  []string
}

func (e *leadEvents) LeadCaptured(_ context.Context, id uint) { e.captured = append(e.captured, id) }

func (e *leadEvents) LeadStatusChanged(_ context.Context, _ uint, status string) {
	e.changed = append(e.changed, status)
}

var errBoom = errors.New("boom")

type nopMail struct{}

func (nopMail) SendVerification(context.Context, string, string, string) error {
	return nil
}

func (nopMail) SendWelcome(context.Context, string, string) error {
	return nil
}

func (nopMail) SendLeadNotification(context.Context, string, mailer.LeadEmail) error {
	return nil
}

func (nopMail) SendPaymentConfirmation(context.Context, mailer.PaymentEmail, []byte) error {
	return nil
}

func (nopMail) SendKYCRequest(context.Context, string, string) error {
	return nil
}

func (nopMail) SendPasswordReset(context.Context, string, string, string) error {
	return nil
}

