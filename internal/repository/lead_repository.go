package repository

import (
	"context"
	"time"

	"bali-advisory/internal/domain/leads"

	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, l *leads.Lead) error {
	return translate(r.db.WithContext(ctx).Create(l).Error)
}

func (r *LeadRepository) FindByID(ctx context.Context, id uint) (*leads.Lead, error) {
	var l leads.Lead
	if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

// ExistsSince reports whether the same email already submitted from source
// after since.
func (r *LeadRepository) ExistsSince(ctx context.Context, email, source string, since time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&leads.Lead{}).
		Where("email = ? AND source = ? AND created_at >= ?", email, source, since).
		Count(&n).Error
	return n > 0, err
}

func (r *LeadRepository) SetCRMLeadID(ctx context.Context, id uint, crmID int64) error {
	return r.db.WithContext(ctx).Model(&leads.Lead{}).Where("id = ?", id).Update("crm_lead_id", crmID).Error
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).Model(&leads.Lead{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *LeadRepository) List(ctx context.Context, status string, limit, offset int) ([]leads.Lead, int64, error) {
	q := r.db.WithContext(ctx).Model(&leads.Lead{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []leads.Lead
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}
