package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/smallbiznis/affina/internal/commission/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() commissiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, row *commissiondomain.AffiliateProductCommission) error {
	return db.WithContext(ctx).Create(row).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*commissiondomain.AffiliateProductCommission, error) {
	var row commissiondomain.AffiliateProductCommission
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) FindPlaceholder(ctx context.Context, db *gorm.DB, tenantID, productID snowflake.ID) (*commissiondomain.AffiliateProductCommission, error) {
	var row commissiondomain.AffiliateProductCommission
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND affiliate_id IS NULL", tenantID, productID).
		Order("created_at ASC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) FindByAffiliateProduct(ctx context.Context, db *gorm.DB, tenantID, affiliateID, productID snowflake.ID) (*commissiondomain.AffiliateProductCommission, error) {
	var row commissiondomain.AffiliateProductCommission
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND affiliate_id = ? AND product_id = ?", tenantID, affiliateID, productID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) ListByAffiliate(ctx context.Context, db *gorm.DB, tenantID, affiliateID snowflake.ID) ([]commissiondomain.AffiliateProductCommission, error) {
	var items []commissiondomain.AffiliateProductCommission
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND affiliate_id = ?", tenantID, affiliateID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateRateSelection(ctx context.Context, db *gorm.DB, row *commissiondomain.AffiliateProductCommission) error {
	return db.WithContext(ctx).
		Model(&commissiondomain.AffiliateProductCommission{}).
		Where("tenant_id = ? AND id = ?", row.TenantID, row.ID).
		Updates(map[string]any{
			"final_commission": row.FinalCommission,
			"rate_source":      row.RateSource,
			"updated_at":       row.UpdatedAt,
		}).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, row *commissiondomain.AffiliateProductCommission) error {
	return db.WithContext(ctx).
		Model(&commissiondomain.AffiliateProductCommission{}).
		Where("tenant_id = ? AND id = ?", row.TenantID, row.ID).
		Updates(map[string]any{
			"affiliate_id":       row.AffiliateID,
			"tracking_link_id":   row.TrackingLinkID,
			"commission_tier_id": row.CommissionTierID,
			"commission_percent": row.CommissionPercent,
			"product_commission": row.ProductCommission,
			"final_commission":   row.FinalCommission,
			"rate_source":        row.RateSource,
			"updated_at":         row.UpdatedAt,
		}).Error
}
