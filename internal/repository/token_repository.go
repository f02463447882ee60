package repository

import (
	"context"

	"bali-advisory/internal/domain/users"

	"gorm.io/gorm"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Replace removes the user's previous tokens of the same type and stores t.
func (r *TokenRepository) Replace(ctx context.Context, t *users.VerificationToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND type = ?", t.UserID, t.Type).Delete(&users.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(t).Error
	})
}

func (r *TokenRepository) Find(ctx context.Context, token, kind string) (*users.VerificationToken, error) {
	var t users.VerificationToken
	if err := r.db.WithContext(ctx).Where("token = ? AND type = ?", token, kind).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TokenRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&users.VerificationToken{}, id).Error
}
