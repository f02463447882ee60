package catalog

import (
	"errors"
	"fmt"

	"bali-advisory/internal/domain/plans"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Product keys accepted by checkout.
const (
	KeyPremium     = "premium"
	KeyVIP         = "vip"
	KeyScoutingFee = "scoutingFee"
)

var ErrUnknownProduct = errors.New("unknown product")

// Product is an immutable catalog entry. Tier is empty for products that do not
// change the buyer's entitlement.
type Product struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PriceUSD    decimal.Decimal `json:"price_usd"`
	Tier        plans.Tier      `json:"tier,omitempty"`
}

var products = map[string]Product{
	KeyPremium: {
		Key:         KeyPremium,
		Name:        "Premium Access",
		Description: "Full advisor results, wizard ROI ranges and unlocked property prices",
		PriceUSD:    decimal.RequireFromString("19.90"),
		Tier:        plans.TierPremium,
	},
	KeyVIP: {
		Key:         KeyVIP,
		Name:        "VIP Membership",
		Description: "Everything in Premium plus off-market listings and a private consultation",
		PriceUSD:    decimal.RequireFromString("49.90"),
		Tier:        plans.TierVIP,
	},
	KeyScoutingFee: {
		Key:         KeyScoutingFee,
		Name:        "Property Scouting Fee",
		Description: "On-the-ground scouting of up to five shortlisted properties",
		PriceUSD:    decimal.RequireFromString("99.00"),
	},
}

var order = []string{KeyPremium, KeyVIP, KeyScoutingFee}

// Get returns the product for key.
func Get(key string) (Product, error) {
	p, ok := products[key]
	if !ok {
		return Product{}, fmt.Errorf("%w: %q", ErrUnknownProduct, key)
	}
	return p, nil
}

// All returns every product in display order.
func All() []Product {
	out := make([]Product, 0, len(order))
	for _, k := range order {
		out = append(out, products[k])
	}
	return out
}

// GrantsTier reports whether buying p changes the entitlement tier.
func (p Product) GrantsTier() bool {
	return p.Tier.IsPaid()
}

func (p Product) DisplayPriceUSD() string {
	return "$" + p.PriceUSD.StringFixed(2)
}

// ToDestinationCurrency converts the USD price with rate and rounds half away
// from zero to a whole unit. IDR is a zero-decimal currency for the provider.
func ToDestinationCurrency(p Product, rate float64) int64 {
	return p.PriceUSD.Mul(decimal.NewFromFloat(rate)).Round(0).IntPart()
}

// XenditAmount is the invoice amount sent to the payment provider.
func XenditAmount(p Product, rate float64) int64 {
	return ToDestinationCurrency(p, rate)
}

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatIDR renders an amount the way Indonesian invoices show it, e.g. "Rp 313.425".
func FormatIDR(amount int64) string {
	return idPrinter.Sprintf("Rp %d", amount)
}
