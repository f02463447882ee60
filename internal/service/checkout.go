package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bali-advisory/internal/domain/billing"
	"bali-advisory/internal/domain/catalog"
)

// ErrPaymentSystem hides provider failures from callers.
var ErrPaymentSystem = errors.New("payment system error")

type PaymentProvider interface {
	Name() string
	CreateInvoice(ctx context.Context, req billing.InvoiceRequest) (*billing.HostedInvoice, error)
}

type RateSource interface {
	USDToIDR(ctx context.Context) (float64, bool)
}

type PaymentStore interface {
	Create(ctx context.Context, p *billing.Payment) error
}

type CheckoutService struct {
	provider PaymentProvider
	rates    RateSource
	payments PaymentStore
	currency string
	appURL   string
	log      zerolog.Logger
}

func NewCheckoutService(provider PaymentProvider, rates RateSource, payments PaymentStore, currency, appURL string, log zerolog.Logger) *CheckoutService {
	if currency == "" {
		currency = "IDR"
	}
	return &CheckoutService{
		provider: provider,
		rates:    rates,
		payments: payments,
		currency: currency,
		appURL:   appURL,
		log:      log.With().Str("component", "checkout").Logger(),
	}
}

type CheckoutInput struct {
	UserID        uint
	Email         string
	Name          string
	ProductKey    string
	AffiliateCode string
}

type CheckoutResult struct {
	CheckoutURL  string `json:"checkout_url"`
	ExternalID   string `json:"external_id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	DisplayPrice string `json:"display_price"`
	ExchangeRate string `json:"exchange_rate"`
}

// ExternalID builds the invoice reference <productKey>-<userID>-<uuid>.
func ExternalID(productKey string, userID uint) string {
	return fmt.Sprintf("%s-%d-%s", productKey, userID, uuid.NewString())
}

// Start creates a hosted invoice for the product. Two calls create two
// invoices; nothing deduplicates clicks.
func (s *CheckoutService) Start(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	product, err := catalog.Get(in.ProductKey)
	if err != nil {
		return nil, err
	}

	rate, fallback := s.rates.USDToIDR(ctx)
	amount := catalog.ToDestinationCurrency(product, rate)
	rateStr := strconv.FormatFloat(rate, 'f', -1, 64)
	externalID := ExternalID(product.Key, in.UserID)

	metadata := map[string]string{
		billing.MetaUserID:        strconv.FormatUint(uint64(in.UserID), 10),
		billing.MetaProductKey:    product.Key,
		billing.MetaCustomerEmail: in.Email,
		billing.MetaDisplayPrice:  product.DisplayPriceUSD(),
		billing.MetaExchangeRate:  rateStr,
	}
	if product.GrantsTier() {
		metadata[billing.MetaTier] = string(product.Tier)
	}
	if in.AffiliateCode != "" {
		metadata[billing.MetaAffiliateCode] = in.AffiliateCode
	}

	inv, err := s.provider.CreateInvoice(ctx, billing.InvoiceRequest{
		ExternalID:  externalID,
		Amount:      amount,
		Currency:    s.currency,
		PayerEmail:  in.Email,
		PayerName:   in.Name,
		Description: fmt.Sprintf("%s (%s)", product.Name, product.DisplayPriceUSD()),
		SuccessURL:  s.appURL + "/checkout/success?ref=" + externalID,
		FailureURL:  s.appURL + "/checkout/failed?ref=" + externalID,
		Metadata:    metadata,
	})
	if err != nil {
		s.log.Error().Err(err).
			Uint("user_id", in.UserID).
			Str("product_key", product.Key).
			Str("external_id", externalID).
			Msg("create invoice failed")
		return nil, fmt.Errorf("%w: %v", ErrPaymentSystem, err)
	}

	s.log.Info().
		Uint("user_id", in.UserID).
		Str("product_key", product.Key).
		Str("external_id", externalID).
		Int64("amount", amount).
		Float64("rate", rate).
		Bool("fallback_rate", fallback).
		Msg("invoice created")

	invoiceID := inv.ID
	payment := &billing.Payment{
		UserID:       in.UserID,
		Provider:     s.provider.Name(),
		ExternalID:   externalID,
		InvoiceID:    &invoiceID,
		ProductKey:   product.Key,
		Tier:         product.Tier,
		AmountIDR:    amount,
		ExchangeRate: rate,
		Status:       billing.StatusPending,
		PayerEmail:   in.Email,
		CheckoutURL:  inv.URL,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		s.log.Error().Err(err).Str("external_id", externalID).Msg("store pending payment failed")
	}

	return &CheckoutResult{
		CheckoutURL:  inv.URL,
		ExternalID:   externalID,
		Amount:       amount,
		Currency:     s.currency,
		DisplayPrice: product.DisplayPriceUSD(),
		ExchangeRate: rateStr,
	}, nil
}
