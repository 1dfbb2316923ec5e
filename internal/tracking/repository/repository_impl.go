package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	trackingdomain "github.com/smallbiznis/affina/internal/tracking/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() trackingdomain.Repository {
	return &repo{}
}

func (r *repo) InsertLink(ctx context.Context, db *gorm.DB, link *trackingdomain.TrackingLink) error {
	return db.WithContext(ctx).Create(link).Error
}

func (r *repo) FindLinkByCode(ctx context.Context, db *gorm.DB, code string) (*trackingdomain.TrackingLink, error) {
	var link trackingdomain.TrackingLink
	err := db.WithContext(ctx).
		Where("tracking_code = ?", code).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *repo) FindLinkByAffiliateProduct(ctx context.Context, db *gorm.DB, tenantID, affiliateID, productID snowflake.ID) (*trackingdomain.TrackingLink, error) {
	var link trackingdomain.TrackingLink
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND affiliate_id = ? AND product_id = ?", tenantID, affiliateID, productID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *repo) ListLinksByAffiliate(ctx context.Context, db *gorm.DB, tenantID, affiliateID snowflake.ID) ([]trackingdomain.TrackingLink, error) {
	var items []trackingdomain.TrackingLink
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND affiliate_id = ?", tenantID, affiliateID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *trackingdomain.TrackingEvent) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) IncrementCounters(ctx context.Context, db *gorm.DB, linkID snowflake.ID, eventType trackingdomain.EventType, amountCents int64) error {
	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}
	switch eventType {
	case trackingdomain.EventClick:
		updates["total_clicks"] = gorm.Expr("total_clicks + 1")
	case trackingdomain.EventConversion:
		updates["total_conversions"] = gorm.Expr("total_conversions + 1")
	case trackingdomain.EventSale:
		updates["total_sales"] = gorm.Expr("total_sales + ?", amountCents)
	default:
		return trackingdomain.ErrInvalidEventType
	}
	return db.WithContext(ctx).
		Model(&trackingdomain.TrackingLink{}).
		Where("id = ?", linkID).
		Updates(updates).Error
}

func (r *repo) CountEvents(ctx context.Context, db *gorm.DB, linkID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&trackingdomain.TrackingEvent{}).
		Where("tracking_link_id = ?", linkID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
