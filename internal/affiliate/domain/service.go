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
	Insert(ctx context.Context, db *gorm.DB, affiliate *Affiliate) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Affiliate, error)
	FindByUser(ctx context.Context, db *gorm.DB, tenantID, userID snowflake.ID) (*Affiliate, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, page pagination.Pagination) ([]Affiliate, error)
	UpdateTier(ctx context.Context, db *gorm.DB, tenantID, affiliateID, tierID snowflake.ID) error

	InsertInvite(ctx context.Context, db *gorm.DB, invite *AffiliateInvite) error
	FindInviteByToken(ctx context.Context, db *gorm.DB, token string) (*AffiliateInvite, error)
	MarkInviteAccepted(ctx context.Context, db *gorm.DB, inviteID snowflake.ID) error
}

type InviteRequest struct {
	Email string `json:"email"`
	// ProductIDs are the products the affiliate is invited to promote.
	ProductIDs []string `json:"product_ids"`
	// UseProductCommission prefers each product's own rate over the tier
	// rate for the placeholder ledger rows.
	UseProductCommission bool `json:"use_product_commission"`
}

type InviteResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AcceptRequest struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type AcceptResponse struct {
	AffiliateID   string   `json:"affiliate_id"`
	TrackingCodes []string `json:"tracking_codes"`
}

type ListRequest struct {
	PageToken string `json:"page_token"`
	PageSize  int    `json:"page_size"`
}

type ListResponse struct {
	Affiliates []Response `json:"affiliates"`
	pagination.PageInfo
}

type Response struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	Status           string    `json:"status"`
	CommissionTierID string    `json:"commission_tier_id"`
	CreatedAt        time.Time `json:"created_at"`
}

type Service interface {
	Invite(ctx context.Context, req InviteRequest) (*InviteResponse, error)
	Accept(ctx context.Context, req AcceptRequest) (*AcceptResponse, error)
	UpdateTier(ctx context.Context, affiliateID, newTierID string) error
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
}

var (
	ErrInvalidTenant    = errors.New("invalid_tenant")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidProducts  = errors.New("invalid_products")
	ErrInvalidToken     = errors.New("invalid_token")
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInviteExpired    = errors.New("invite_expired")
	ErrInviteAccepted   = errors.New("invite_already_accepted")
	ErrAcceptInProgress = errors.New("accept_in_progress")
	ErrNotFound         = errors.New("not_found")
)
