package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	productdomain "github.com/smallbiznis/affina/internal/product/domain"
	"github.com/smallbiznis/affina/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() productdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, product *productdomain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*productdomain.Product, error) {
	var product productdomain.Product
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, page pagination.Pagination) ([]productdomain.Product, error) {
	stmt := db.WithContext(ctx).
		Model(&productdomain.Product{}).
		Where("tenant_id = ?", tenantID)
	stmt, err := pagination.Apply(stmt, page)
	if err != nil {
		return nil, err
	}

	var items []productdomain.Product
	err = stmt.
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *productdomain.Product) error {
	return db.WithContext(ctx).
		Model(&productdomain.Product{}).
		Where("tenant_id = ? AND id = ?", product.TenantID, product.ID).
		Updates(map[string]any{
			"name":               product.Name,
			"price_cents":        product.PriceCents,
			"commission_percent": product.CommissionPercent,
			"status":             product.Status,
			"updated_at":         product.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&productdomain.Product{}).Error
}
