package receipt

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesPDF(t *testing.T) {
	pdf, err := NewGenerator().Generate(Data{
		Brand:        "Bali Invest Advisory",
		ExternalID:   "vip-3-4b1d",
		InvoiceID:    "inv_9",
		Provider:     "xendit",
		PaidAt:       time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC),
		CustomerName: "Ketut Rahayu",
		Email:        "ketut@example.com",
		ProductName:  "VIP membership",
		DisplayPrice: "$49.90",
		ExchangeRate: "15750",
		AmountIDR:    "Rp 785.925",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
