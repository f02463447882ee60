package repository

import (
	"context"

	"bali-advisory/internal/domain/kyc"

	"gorm.io/gorm"
)

type KYCRepository struct {
	db *gorm.DB
}

func NewKYCRepository(db *gorm.DB) *KYCRepository {
	return &KYCRepository{db: db}
}

func (r *KYCRepository) Create(ctx context.Context, d *kyc.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *KYCRepository) ListByUser(ctx context.Context, userID uint) ([]kyc.Document, error) {
	var out []kyc.Document
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}
