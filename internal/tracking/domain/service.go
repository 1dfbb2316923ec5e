package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertLink(ctx context.Context, db *gorm.DB, link *TrackingLink) error
	FindLinkByCode(ctx context.Context, db *gorm.DB, code string) (*TrackingLink, error)
	FindLinkByAffiliateProduct(ctx context.Context, db *gorm.DB, tenantID, affiliateID, productID snowflake.ID) (*TrackingLink, error)
	ListLinksByAffiliate(ctx context.Context, db *gorm.DB, tenantID, affiliateID snowflake.ID) ([]TrackingLink, error)

	InsertEvent(ctx context.Context, db *gorm.DB, event *TrackingEvent) error
	// IncrementCounters bumps the counter columns for a link in a single
	// UPDATE statement; no read-modify-write.
	IncrementCounters(ctx context.Context, db *gorm.DB, linkID snowflake.ID, eventType EventType, amountCents int64) error
	CountEvents(ctx context.Context, db *gorm.DB, linkID snowflake.ID) (int64, error)
}

type EventRequest struct {
	Type         string         `json:"type"`
	TrackingCode string         `json:"tracking_code"`
	AmountCents  int64          `json:"amount_cents,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	OccurredAt   *time.Time     `json:"occurred_at,omitempty"`
}

type EventResponse struct {
	ID           string    `json:"id"`
	TrackingCode string    `json:"tracking_code"`
	EventType    string    `json:"event_type"`
	AmountCents  int64     `json:"amount_cents"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type MetricsResponse struct {
	TrackingCode     string  `json:"tracking_code"`
	AffiliateID      string  `json:"affiliate_id"`
	ProductID        string  `json:"product_id"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalConversions int64   `json:"total_conversions"`
	TotalSalesCents  int64   `json:"total_sales_cents"`
	ConversionRate   float64 `json:"conversion_rate"`
}

type Service interface {
	// EnsureLink returns the affiliate's link for a product, creating it
	// when absent. Safe to call twice for the same pair.
	EnsureLink(ctx context.Context, tx *gorm.DB, tenantID, affiliateID, productID snowflake.ID) (*TrackingLink, error)

	// RecordEvent appends an event row and bumps the link's counters.
	RecordEvent(ctx context.Context, req EventRequest) (*EventResponse, error)

	Metrics(ctx context.Context, trackingCode string) (*MetricsResponse, error)
	ListForAffiliate(ctx context.Context, affiliateID string) ([]TrackingLink, error)
}

var (
	ErrInvalidTenant    = errors.New("invalid_tenant")
	ErrInvalidEventType = errors.New("invalid_event_type")
	ErrInvalidCode      = errors.New("invalid_tracking_code")
	ErrInvalidAmount    = errors.New("invalid_amount_cents")
	ErrInvalidAffiliate = errors.New("invalid_affiliate")
	ErrNotFound         = errors.New("not_found")
	ErrRateLimited      = errors.New("rate_limited")
)
