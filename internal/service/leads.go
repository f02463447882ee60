package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bali-advisory/internal/domain/leads"
)

// DuplicateLeadWindow rejects the same email+source submitted again within it.
const DuplicateLeadWindow = 10 * time.Minute

type LeadStore interface {
	Create(ctx context.Context, l *leads.Lead) error
	ExistsSince(ctx context.Context, email, source string, since time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	List(ctx context.Context, status string, limit, offset int) ([]leads.Lead, int64, error)
}

type LeadEvents interface {
	LeadCaptured(ctx context.Context, leadID uint)
	LeadStatusChanged(ctx context.Context, leadID uint, status string)
}

type LeadService struct {
	store  LeadStore
	events LeadEvents
	now    func() time.Time
	log    zerolog.Logger
}

func NewLeadService(store LeadStore, events LeadEvents, log zerolog.Logger) *LeadService {
	return &LeadService{store: store, events: events, now: time.Now, log: log.With().Str("component", "leads").Logger()}
}

// Submit validates and stores a lead, then hands CRM sync and notifications to
// the dispatcher. Only validation, duplicate and storage errors reach the
// caller.
func (s *LeadService) Submit(ctx context.Context, l leads.Lead) (*leads.Lead, error) {
	l.Normalize()
	l.Status = leads.StatusNew
	if err := l.Validate(); err != nil {
		return nil, err
	}

	dup, err := s.store.ExistsSince(ctx, l.Email, l.Source, s.now().Add(-DuplicateLeadWindow))
	if err != nil {
		s.log.Warn().Err(err).Msg("duplicate lead check failed")
	}
	if dup {
		return nil, leads.ErrDuplicateLead
	}

	if err := s.store.Create(ctx, &l); err != nil {
		return nil, err
	}

	s.log.Info().Uint("lead_id", l.ID).Str("source", l.Source).Msg("lead captured")
	s.events.LeadCaptured(ctx, l.ID)
	return &l, nil
}

func (s *LeadService) UpdateStatus(ctx context.Context, id uint, status string) error {
	if !leads.ValidStatus(status) {
		return leads.ErrInvalidStatus
	}
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.events.LeadStatusChanged(ctx, id, status)
	return nil
}

func (s *LeadService) List(ctx context.Context, status string, limit, offset int) ([]leads.Lead, int64, error) {
	if status != "" && !leads.ValidStatus(status) {
		return nil, 0, leads.ErrInvalidStatus
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, status, limit, offset)
}
