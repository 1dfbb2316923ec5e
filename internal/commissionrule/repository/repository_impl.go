package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	ruledomain "github.com/smallbiznis/affina/internal/commissionrule/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() ruledomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rule *ruledomain.CommissionRule) error {
	return db.WithContext(ctx).Create(rule).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*ruledomain.CommissionRule, error) {
	var rule ruledomain.CommissionRule
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]ruledomain.CommissionRule, error) {
	var items []ruledomain.CommissionRule
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("priority DESC, created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, rule *ruledomain.CommissionRule) error {
	return db.WithContext(ctx).
		Model(&ruledomain.CommissionRule{}).
		Where("tenant_id = ? AND id = ?", rule.TenantID, rule.ID).
		Updates(map[string]any{
			"name":       rule.Name,
			"condition":  rule.Condition,
			"value":      rule.Value,
			"status":     rule.Status,
			"priority":   rule.Priority,
			"end_date":   rule.EndDate,
			"updated_at": rule.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&ruledomain.CommissionRule{}).Error
}
