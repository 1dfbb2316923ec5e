package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tier *CommissionTier) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*CommissionTier, error)
	// List returns tiers ordered ascending by min_sales.
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]CommissionTier, error)
	// Lowest returns the tier with the minimum min_sales, or nil.
	Lowest(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (*CommissionTier, error)
	Update(ctx context.Context, db *gorm.DB, tier *CommissionTier) error
	Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error
}

type CreateRequest struct {
	TierName          string `json:"tier_name"`
	CommissionPercent string `json:"commission_percent"`
	MinSales          int64  `json:"min_sales"`
}

type UpdateRequest struct {
	ID                string  `json:"id"`
	TierName          *string `json:"tier_name"`
	CommissionPercent *string `json:"commission_percent"`
	MinSales          *int64  `json:"min_sales"`
}

type Response struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenant_id"`
	TierName          string    `json:"tier_name"`
	CommissionPercent string    `json:"commission_percent"`
	MinSales          int64     `json:"min_sales"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error

	// EnsureDefault returns the tenant's lowest tier, seeding a Default
	// Tier inside tx when the tenant has none. Idempotent: a concurrent
	// seed loses to the unique (tenant_id, tier_name) constraint and
	// re-reads the winner.
	EnsureDefault(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID) (*CommissionTier, error)
}

var (
	ErrInvalidTenant   = errors.New("invalid_tenant")
	ErrInvalidTierName = errors.New("invalid_tier_name")
	ErrInvalidPercent  = errors.New("invalid_commission_percent")
	ErrInvalidMinSales = errors.New("invalid_min_sales")
	ErrInvalidID       = errors.New("invalid_id")
	ErrTierNameTaken   = errors.New("tier_name_taken")
	ErrNotFound        = errors.New("not_found")
)
