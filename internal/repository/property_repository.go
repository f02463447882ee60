package repository

import (
	"context"

	"bali-advisory/internal/domain/properties"

	"gorm.io/gorm"
)

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

type PropertyFilter struct {
	Status string
	Area   string
	Type   string
}

func (r *PropertyRepository) List(ctx context.Context, f PropertyFilter) ([]properties.Property, error) {
	q := r.db.WithContext(ctx).Model(&properties.Property{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Area != "" {
		q = q.Where("LOWER(area) = LOWER(?)", f.Area)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}

	var out []properties.Property
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *PropertyRepository) FindBySlug(ctx context.Context, slug string) (*properties.Property, error) {
	var p properties.Property
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PropertyRepository) FindByID(ctx context.Context, id uint) (*properties.Property, error) {
	var p properties.Property
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *PropertyRepository) Create(ctx context.Context, p *properties.Property) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PropertyRepository) Save(ctx context.Context, p *properties.Property) error {
	return translate(r.db.WithContext(ctx).Save(p).Error)
}

func (r *PropertyRepository) SetStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).Model(&properties.Property{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&properties.Property{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
