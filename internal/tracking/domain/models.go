package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type EventType string

const (
	EventClick      EventType = "click"
	EventConversion EventType = "conversion"
	EventSale       EventType = "sale"
)

// TrackingLink is one affiliate's link for one product. The counter columns
// are derived from the event log and bumped atomically in SQL; the event
// rows remain the source of truth.
type TrackingLink struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	TenantID         snowflake.ID `json:"tenant_id" gorm:"column:tenant_id;not null;index"`
	AffiliateID      snowflake.ID `json:"affiliate_id" gorm:"column:affiliate_id;not null;uniqueIndex:uq_tracking_affiliate_product"`
	ProductID        snowflake.ID `json:"product_id" gorm:"column:product_id;not null;uniqueIndex:uq_tracking_affiliate_product"`
	TrackingCode     string       `json:"tracking_code" gorm:"column:tracking_code;type:text;not null;uniqueIndex"`
	TotalClicks      int64        `json:"total_clicks" gorm:"column:total_clicks;not null;default:0"`
	TotalConversions int64        `json:"total_conversions" gorm:"column:total_conversions;not null;default:0"`
	TotalSales       int64        `json:"total_sales" gorm:"column:total_sales;not null;default:0"`
	CreatedAt        time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TrackingLink) TableName() string { return "tracking_links" }

// TrackingEvent is an append-only ingestion record. Rows are never updated
// or deleted.
type TrackingEvent struct {
	ID             snowflake.ID      `json:"id" gorm:"primaryKey"`
	TenantID       snowflake.ID      `json:"tenant_id" gorm:"column:tenant_id;not null;index"`
	TrackingLinkID snowflake.ID      `json:"tracking_link_id" gorm:"column:tracking_link_id;not null;index"`
	AffiliateID    snowflake.ID      `json:"affiliate_id" gorm:"column:affiliate_id;not null;index"`
	EventType      EventType         `json:"event_type" gorm:"column:event_type;type:text;not null"`
	AmountCents    int64             `json:"amount_cents" gorm:"column:amount_cents;not null;default:0"`
	Metadata       datatypes.JSONMap `json:"metadata" gorm:"column:metadata;type:jsonb"`
	OccurredAt     time.Time         `json:"occurred_at" gorm:"column:occurred_at;not null"`
	CreatedAt      time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TrackingEvent) TableName() string { return "tracking_events" }
