package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/affina/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Product, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, page pagination.Pagination) ([]Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error
}

type CreateRequest struct {
	Name              string `json:"name"`
	SKUCode           string `json:"sku_code"`
	PriceCents        int64  `json:"price_cents"`
	CommissionPercent string `json:"commission_percent"`
}

type UpdateRequest struct {
	ID                string  `json:"id"`
	Name              *string `json:"name"`
	PriceCents        *int64  `json:"price_cents"`
	CommissionPercent *string `json:"commission_percent"`
	Status            *string `json:"status"`
}

type ListRequest struct {
	PageToken string `json:"page_token"`
	PageSize  int    `json:"page_size"`
}

type ListResponse struct {
	Products []Response `json:"products"`
	pagination.PageInfo
}

type Response struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenant_id"`
	Name              string    `json:"name"`
	SKUCode           string    `json:"sku_code"`
	PriceCents        int64     `json:"price_cents"`
	CommissionPercent string    `json:"commission_percent,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidTenant  = errors.New("invalid_tenant")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidSKU     = errors.New("invalid_sku_code")
	ErrInvalidPrice   = errors.New("invalid_price")
	ErrInvalidPercent = errors.New("invalid_commission_percent")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
)
