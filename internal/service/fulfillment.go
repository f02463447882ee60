package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"bali-advisory/internal/domain/billing"
	"bali-advisory/internal/domain/catalog"
	"bali-advisory/internal/domain/plans"
	"bali-advisory/internal/domain/users"
	"bali-advisory/internal/notify"
	"bali-advisory/internal/repository"
)

// Outcome says what fulfillment did with an event. Every outcome is
// acknowledged to the provider.
type Outcome string

const (
	OutcomeStatusRecorded   Outcome = "status_recorded"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeMissingUser      Outcome = "missing_user"
	OutcomeUnknownProduct   Outcome = "unknown_product"
	OutcomeTierGranted      Outcome = "tier_granted"
	OutcomeServiceFulfilled Outcome = "service_fulfilled"
)

type EntitlementStore interface {
	FindByID(ctx context.Context, id uint) (*users.User, error)
	FindByAffiliateCode(ctx context.Context, code string) (*users.User, error)
	UpdateTier(ctx context.Context, userID uint, tier plans.Tier) error
}

type PaymentLedger interface {
	UpdateStatus(ctx context.Context, externalID, status, payerEmail string, paidAt *time.Time) error
	MarkEventProcessed(ctx context.Context, provider, eventID, externalID string) (bool, error)
	UnmarkEventProcessed(ctx context.Context, provider, eventID string) error
	CreateCommission(ctx context.Context, c *billing.AffiliateCommission) error
}

type SideEffects interface {
	SaleCompleted(ctx context.Context, s notify.Sale)
}

type FulfillmentService struct {
	users    EntitlementStore
	payments PaymentLedger
	effects  SideEffects
	now      func() time.Time
	log      zerolog.Logger
}

func NewFulfillmentService(u EntitlementStore, p PaymentLedger, effects SideEffects, log zerolog.Logger) *FulfillmentService {
	return &FulfillmentService{
		users:    u,
		payments: p,
		effects:  effects,
		now:      time.Now,
		log:      log.With().Str("component", "fulfillment").Logger(),
	}
}

// Handle applies a verified provider event. Only PAID changes anything beyond
// the stored payment status. An error is returned only when the entitlement
// could not be read or written, so the provider redelivers.
func (s *FulfillmentService) Handle(ctx context.Context, ev billing.PaymentEvent) (Outcome, error) {
	l := s.log.With().
		Str("provider", ev.Provider).
		Str("external_id", ev.ExternalID).
		Str("status", ev.Status).
		Logger()

	if ev.Status != billing.StatusPaid {
		if err := s.payments.UpdateStatus(ctx, ev.ExternalID, ev.Status, "", nil); err != nil {
			l.Warn().Err(err).Msg("payment status update failed")
		}
		l.Info().Msg("non-paid invoice status recorded")
		return OutcomeStatusRecorded, nil
	}

	userID, ok := ev.UserID()
	if !ok {
		l.Error().Str("user_id", ev.Metadata[billing.MetaUserID]).Msg("paid invoice without valid user_id in metadata")
		return OutcomeMissingUser, nil
	}
	l = l.With().Uint("user_id", userID).Logger()

	product, err := catalog.Get(ev.ProductKey())
	if err != nil {
		l.Error().Err(err).Msg("paid invoice for unknown product")
		return OutcomeUnknownProduct, nil
	}

	eventKey := ev.IdempotencyKey()
	fresh, err := s.payments.MarkEventProcessed(ctx, ev.Provider, eventKey, ev.ExternalID)
	if err != nil {
		// without the ledger we cannot tell a redelivery apart; the tier write
		// below is idempotent, the side effects may repeat
		l.Error().Err(err).Msg("idempotency ledger unavailable")
		fresh = true
	}
	if !fresh {
		l.Info().Str("event_id", eventKey).Msg("duplicate paid event acknowledged")
		return OutcomeDuplicate, nil
	}

	paidAt := s.now().UTC()
	if err := s.payments.UpdateStatus(ctx, ev.ExternalID, billing.StatusPaid, ev.PayerEmail, &paidAt); err != nil {
		l.Warn().Err(err).Msg("payment status update failed")
	}

	buyer, err := s.users.FindByID(ctx, userID)
	if err != nil {
		// the tier rank check needs the buyer; only a missing row is final
		if product.GrantsTier() && !errors.Is(err, repository.ErrNotFound) {
			l.Error().Err(err).Msg("buyer lookup failed")
			s.releaseClaim(ctx, l, ev.Provider, eventKey)
			return "", fmt.Errorf("load buyer %d: %w", userID, err)
		}
		l.Warn().Err(err).Msg("buyer lookup failed, using invoice contact")
		buyer = nil
	}

	outcome := OutcomeServiceFulfilled
	sale := saleFor(ev, product, userID, buyer, paidAt)
	if product.GrantsTier() {
		if mdTier, ok := ev.Tier(); ok && mdTier != product.Tier {
			l.Warn().Str("metadata_tier", string(mdTier)).Str("product_tier", string(product.Tier)).Msg("tier metadata disagrees with catalog, using catalog")
		}
		effective, err := s.grantTier(ctx, l, userID, buyer, product.Tier)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return OutcomeMissingUser, nil
			}
			s.releaseClaim(ctx, l, ev.Provider, eventKey)
			return "", err
		}
		sale.Tier = string(effective)
		outcome = OutcomeTierGranted
	}

	s.effects.SaleCompleted(ctx, sale)
	s.recordCommission(ctx, l, ev, product, userID)

	return outcome, nil
}

// releaseClaim forgets the event so the provider's redelivery is processed.
func (s *FulfillmentService) releaseClaim(ctx context.Context, l zerolog.Logger, provider, eventKey string) {
	if err := s.payments.UnmarkEventProcessed(ctx, provider, eventKey); err != nil {
		l.Error().Err(err).Msg("release idempotency claim failed")
	}
}

// grantTier returns the tier the user holds afterwards.
func (s *FulfillmentService) grantTier(ctx context.Context, l zerolog.Logger, userID uint, current *users.User, tier plans.Tier) (plans.Tier, error) {
	// purchases only move up; a lower tier bought by a higher member is kept as is
	if current != nil && current.Tier().Rank() > tier.Rank() {
		l.Info().Str("current_tier", string(current.Tier())).Str("tier", string(tier)).Msg("paid tier below current tier, entitlement kept")
		return current.Tier(), nil
	}
	if current != nil && !plans.IsUpgrade(current.Tier(), tier) {
		l.Info().Str("tier", string(tier)).Msg("paid tier equals current tier")
	}
	if err := s.users.UpdateTier(ctx, userID, tier); err != nil {
		l.Error().Err(err).Str("tier", string(tier)).Msg("tier update failed")
		return "", fmt.Errorf("update tier for user %d: %w", userID, err)
	}
	l.Info().Str("tier", string(tier)).Msg("tier granted")
	return tier, nil
}

func (s *FulfillmentService) recordCommission(ctx context.Context, l zerolog.Logger, ev billing.PaymentEvent, product catalog.Product, buyerID uint) {
	code := ev.AffiliateCode()
	if code == "" {
		return
	}
	affiliate, err := s.users.FindByAffiliateCode(ctx, code)
	if err != nil {
		l.Warn().Err(err).Str("affiliate_code", code).Msg("affiliate not found, no commission")
		return
	}
	if affiliate.ID == buyerID {
		l.Warn().Str("affiliate_code", code).Msg("self referral ignored")
		return
	}

	err = s.payments.CreateCommission(ctx, &billing.AffiliateCommission{
		AffiliateCode: code,
		ExternalID:    ev.ExternalID,
		ProductKey:    product.Key,
		BuyerUserID:   buyerID,
		AmountIDR:     billing.CommissionAmount(ev.Amount),
		RateBps:       billing.CommissionRateBps,
		Status:        "owed",
	})
	if err != nil {
		l.Error().Err(err).Str("affiliate_code", code).Msg("commission not recorded")
	}
}

func saleFor(ev billing.PaymentEvent, p catalog.Product, buyerID uint, buyer *users.User, paidAt time.Time) notify.Sale {
	email := ev.PayerEmail
	if email == "" {
		email = ev.Metadata[billing.MetaCustomerEmail]
	}
	var name string
	if buyer != nil {
		name = buyer.DisplayName()
		if email == "" {
			email = buyer.Email
		}
	}

	rate, _ := strconv.ParseFloat(ev.Metadata[billing.MetaExchangeRate], 64)
	display := ev.Metadata[billing.MetaDisplayPrice]
	if display == "" {
		display = p.DisplayPriceUSD()
	}

	return notify.Sale{
		UserID:       buyerID,
		Email:        email,
		Name:         name,
		ProductKey:   p.Key,
		ProductName:  p.Name,
		Tier:         string(p.Tier),
		ExternalID:   ev.ExternalID,
		InvoiceID:    ev.InvoiceID,
		Provider:     ev.Provider,
		AmountIDR:    ev.Amount,
		DisplayPrice: display,
		ExchangeRate: rate,
		PaidAt:       paidAt,
	}
}
