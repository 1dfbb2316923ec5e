package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/smallbiznis/affina/internal/commissiontier/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tierdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tier *tierdomain.CommissionTier) error {
	return db.WithContext(ctx).Create(tier).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*tierdomain.CommissionTier, error) {
	var tier tierdomain.CommissionTier
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&tier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]tierdomain.CommissionTier, error) {
	var items []tierdomain.CommissionTier
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("min_sales ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Lowest(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (*tierdomain.CommissionTier, error) {
	var tier tierdomain.CommissionTier
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("min_sales ASC").
		First(&tier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, tier *tierdomain.CommissionTier) error {
	return db.WithContext(ctx).
		Model(&tierdomain.CommissionTier{}).
		Where("tenant_id = ? AND id = ?", tier.TenantID, tier.ID).
		Updates(map[string]any{
			"tier_name":          tier.TierName,
			"commission_percent": tier.CommissionPercent,
			"min_sales":          tier.MinSales,
			"updated_at":         tier.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&tierdomain.CommissionTier{}).Error
}
