package repository

import (
	"context"
	"time"

	"bali-advisory/internal/domain/plans"
	"bali-advisory/internal/domain/users"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *users.User) error {
	if u.SubscriptionTier == "" {
		u.SubscriptionTier = plans.TierFree
	}
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*users.User, error) {
	var u users.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	var u users.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByGoogleSub(ctx context.Context, sub string) (*users.User, error) {
	var u users.User
	if err := r.db.WithContext(ctx).Where("google_sub = ?", sub).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByAffiliateCode(ctx context.Context, code string) (*users.User, error) {
	var u users.User
	if err := r.db.WithContext(ctx).Where("affiliate_code = ?", code).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// UpdateTier writes the entitlement. Writing the current value again is a no-op
// for access purposes.
func (r *UserRepository) UpdateTier(ctx context.Context, userID uint, tier plans.Tier) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&users.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"subscription_tier": tier,
			"tier_updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, userID uint, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&users.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetCRMPartnerID(ctx context.Context, userID uint, partnerID int64) error {
	return r.Update(ctx, userID, map[string]interface{}{"crm_partner_id": partnerID})
}

func (r *UserRepository) SetBillingCustomerID(ctx context.Context, userID uint, customerID string) error {
	return r.Update(ctx, userID, map[string]interface{}{"billing_customer_id": customerID})
}

func (r *UserRepository) List(ctx context.Context) ([]users.User, error) {
	var out []users.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *UserRepository) CountByTier(ctx context.Context) (map[plans.Tier]int64, error) {
	var rows []struct {
		Tier  plans.Tier
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&users.User{}).
		Select("subscription_tier AS tier, COUNT(id) AS count").
		Group("subscription_tier").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := map[plans.Tier]int64{}
	for _, row := range rows {
		out[row.Tier] = row.Count
	}
	return out, nil
}
