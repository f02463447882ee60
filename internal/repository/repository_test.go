package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bali-advisory/internal/domain/billing"
	"bali-advisory/internal/domain/plans"
	"bali-advisory/internal/domain/users"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&users.User{},
		&billing.Payment{},
		&billing.ProcessedEvent{},
		&billing.AffiliateCommission{},
	))
	return db
}

func TestMarkEventProcessedClaimsOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository(newTestDB(t))

	fresh, err := repo.MarkEventProcessed(ctx, "xendit", "inv_1:PAID", "vip-42-a")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = repo.MarkEventProcessed(ctx, "xendit", "inv_1:PAID", "vip-42-a")
	require.NoError(t, err)
	assert.False(t, fresh)

	// same id from another provider is a different event
	fresh, err = repo.MarkEventProcessed(ctx, "stripe", "inv_1:PAID", "vip-42-a")
	require.NoError(t, err)
	assert.True(t, fresh)

	require.NoError(t, repo.UnmarkEventProcessed(ctx, "xendit", "inv_1:PAID"))
	fresh, err = repo.MarkEventProcessed(ctx, "xendit", "inv_1:PAID", "vip-42-a")
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestUpdateStatusNeverLeavesPaid(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, &billing.Payment{
		UserID:     42,
		Provider:   "xendit",
		ExternalID: "premium-42-a",
		ProductKey: "premium",
		AmountIDR:  313425,
		Status:     billing.StatusPending,
	}))

	paidAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateStatus(ctx, "premium-42-a", billing.StatusPaid, "made@example.com", &paidAt))
	require.NoError(t, repo.UpdateStatus(ctx, "premium-42-a", billing.StatusExpired, "", nil))

	p, err := repo.FindByExternalID(ctx, "premium-42-a")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, p.Status)
	assert.Equal(t, "made@example.com", p.PayerEmail)
	require.NotNil(t, p.PaidAt)
	assert.True(t, paidAt.Equal(*p.PaidAt))

	total, err := repo.PaidRevenue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(313425), total)
}

func TestFindPaymentMissing(t *testing.T) {
	repo := NewPaymentRepository(newTestDB(t))
	_, err := repo.FindByExternalID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateCommissionOncePerInvoice(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository(newTestDB(t))

	c := billing.AffiliateCommission{AffiliateCode: "KETUT10", ExternalID: "vip-3-x", AmountIDR: 78592, Status: "owed"}
	first, second := c, c
	require.NoError(t, repo.CreateCommission(ctx, &first))
	require.NoError(t, repo.CreateCommission(ctx, &second))

	list, err := repo.ListCommissions(ctx, "KETUT10")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateTier(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	u := &users.User{Email: "made@example.com"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, plans.TierFree, u.SubscriptionTier)

	require.NoError(t, repo.UpdateTier(ctx, u.ID, plans.TierVIP))
	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, plans.TierVIP, got.SubscriptionTier)
	assert.NotNil(t, got.TierUpdatedAt)

	assert.ErrorIs(t, repo.UpdateTier(ctx, u.ID+100, plans.TierPremium), ErrNotFound)
}

func TestUserLookupsTranslateErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.FindByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Create(ctx, &users.User{Email: "made@example.com"}))
	err = repo.Create(ctx, &users.User{Email: "made@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}
