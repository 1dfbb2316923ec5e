package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, row *AffiliateProductCommission) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*AffiliateProductCommission, error)
	// FindPlaceholder returns the unbound (affiliate_id IS NULL) row for a
	// product, or nil.
	FindPlaceholder(ctx context.Context, db *gorm.DB, tenantID, productID snowflake.ID) (*AffiliateProductCommission, error)
	FindByAffiliateProduct(ctx context.Context, db *gorm.DB, tenantID, affiliateID, productID snowflake.ID) (*AffiliateProductCommission, error)
	ListByAffiliate(ctx context.Context, db *gorm.DB, tenantID, affiliateID snowflake.ID) ([]AffiliateProductCommission, error)
	Update(ctx context.Context, db *gorm.DB, row *AffiliateProductCommission) error
	// UpdateRateSelection persists only final_commission and rate_source;
	// the tier and product snapshots on the row stay untouched.
	UpdateRateSelection(ctx context.Context, db *gorm.DB, row *AffiliateProductCommission) error
}

type Response struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenant_id"`
	AffiliateID       string    `json:"affiliate_id,omitempty"`
	ProductID         string    `json:"product_id"`
	TrackingLinkID    string    `json:"tracking_link_id,omitempty"`
	CommissionTierID  string    `json:"commission_tier_id"`
	CommissionPercent string    `json:"commission_percent"`
	ProductCommission string    `json:"product_commission"`
	FinalCommission   string    `json:"final_commission"`
	RateSource        string    `json:"rate_source"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type ToggleRequest struct {
	AffiliateID          string `json:"affiliate_id"`
	ProductID            string `json:"product_id"`
	UseProductCommission bool   `json:"use_product_commission"`
}

type ReassignTierRequest struct {
	AffiliateID string `json:"affiliate_id"`
	NewTierID   string `json:"new_tier_id"`
}

// Service is the commission resolution engine: it decides which rate a
// ledger row carries and keeps the rows consistent when tiers, products, or
// tier assignments change.
type Service interface {
	// AssignDefault creates the placeholder ledger row for an invited
	// product, seeding a default tier when the tenant has none. Runs
	// inside tx.
	AssignDefault(ctx context.Context, tx *gorm.DB, tenantID, productID snowflake.ID, useProductRate bool) (*AffiliateProductCommission, error)

	// BindAffiliate fills the placeholder row for a product with the
	// accepted affiliate and its tracking link. When no placeholder
	// exists it creates a fresh row from the tenant's lowest tier, and
	// fails with ErrNoTierConfigured when the tenant has no tier at all.
	BindAffiliate(ctx context.Context, tx *gorm.DB, tenantID, productID, affiliateID, trackingLinkID snowflake.ID) (*AffiliateProductCommission, error)

	// ToggleRateSource recomputes final_commission for one pair from
	// either the product's own rate or the row's tier rate.
	ToggleRateSource(ctx context.Context, req ToggleRequest) (*Response, error)

	// ReassignTier moves an affiliate to a new tier and fans the change
	// out to every tier-sourced ledger row in one transaction.
	ReassignTier(ctx context.Context, req ReassignTierRequest) ([]Response, error)

	ListForAffiliate(ctx context.Context, affiliateID string) ([]Response, error)
}

var (
	ErrInvalidTenant    = errors.New("invalid_tenant")
	ErrInvalidAffiliate = errors.New("invalid_affiliate")
	ErrInvalidProduct   = errors.New("invalid_product")
	ErrInvalidTier      = errors.New("invalid_tier")
	ErrNotFound         = errors.New("not_found")
	// ErrNoTierConfigured marks a tenant with zero commission tiers on a
	// path that cannot seed one; silently defaulting would misprice
	// commissions, so the request must fail.
	ErrNoTierConfigured = errors.New("no_commission_tier_configured")
)
