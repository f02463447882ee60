package repository

import (
	"context"
	"time"

	"bali-advisory/internal/domain/billing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *billing.Payment) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PaymentRepository) FindByExternalID(ctx context.Context, externalID string) (*billing.Payment, error) {
	var p billing.Payment
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// UpdateStatus records the provider status for an invoice. A PAID row is never
// moved back to another status.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, externalID, status, payerEmail string, paidAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if payerEmail != "" {
		updates["payer_email"] = payerEmail
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}
	return r.db.WithContext(ctx).
		Model(&billing.Payment{}).
		Where("external_id = ? AND status <> ?", externalID, billing.StatusPaid).
		Updates(updates).Error
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID uint) ([]billing.Payment, error) {
	var out []billing.Payment
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *PaymentRepository) List(ctx context.Context) ([]billing.Payment, error) {
	var out []billing.Payment
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

// PaidRevenue sums paid invoices, optionally from since onwards.
func (r *PaymentRepository) PaidRevenue(ctx context.Context, since *time.Time) (int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&billing.Payment{}).Where("status = ?", billing.StatusPaid)
	if since != nil {
		q = q.Where("paid_at >= ?", *since)
	}
	err := q.Select("COALESCE(SUM(amount_idr), 0)").Scan(&total).Error
	return total, err
}

// MarkEventProcessed stores the provider event id. It returns false when the
// event was already recorded by an earlier delivery.
func (r *PaymentRepository) MarkEventProcessed(ctx context.Context, provider, eventID, externalID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&billing.ProcessedEvent{Provider: provider, EventID: eventID, ExternalID: externalID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UnmarkEventProcessed releases a claimed event so a redelivery can retry it.
func (r *PaymentRepository) UnmarkEventProcessed(ctx context.Context, provider, eventID string) error {
	return r.db.WithContext(ctx).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Delete(&billing.ProcessedEvent{}).Error
}

func (r *PaymentRepository) CreateCommission(ctx context.Context, c *billing.AffiliateCommission) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_id"}}, DoNothing: true}).
		Create(c).Error
}

func (r *PaymentRepository) ListCommissions(ctx context.Context, code string) ([]billing.AffiliateCommission, error) {
	var out []billing.AffiliateCommission
	err := r.db.WithContext(ctx).Where("affiliate_code = ?", code).Order("created_at DESC").Find(&out).Error
	return out, err
}
