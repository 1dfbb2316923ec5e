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
	Insert(ctx context.Context, db *gorm.DB, campaign *Campaign) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Campaign, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, page pagination.Pagination) ([]Campaign, error)
	Update(ctx context.Context, db *gorm.DB, campaign *Campaign) error

	InsertParticipation(ctx context.Context, db *gorm.DB, participation *CampaignParticipation) error
	FindParticipation(ctx context.Context, db *gorm.DB, tenantID, campaignID, influencerID snowflake.ID) (*CampaignParticipation, error)
	ListParticipants(ctx context.Context, db *gorm.DB, tenantID, campaignID snowflake.ID) ([]CampaignParticipation, error)
}

type CreateRequest struct {
	Name        string     `json:"name"`
	Status      string     `json:"status,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	BudgetCents int64      `json:"budget_cents"`
}

type ListRequest struct {
	PageToken string `json:"page_token"`
	PageSize  int    `json:"page_size"`
}

type ListResponse struct {
	Campaigns []Response `json:"campaigns"`
	pagination.PageInfo
}

type Response struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	BudgetCents int64      `json:"budget_cents"`
	CreatedAt   time.Time  `json:"created_at"`
}

type JoinRequest struct {
	CampaignID   string `json:"campaign_id"`
	InfluencerID string `json:"influencer_id"`
}

type JoinResponse struct {
	ParticipationID string   `json:"participation_id"`
	CampaignID      string   `json:"campaign_id"`
	InfluencerID    string   `json:"influencer_id"`
	PromoCodes      []string `json:"promo_codes"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)

	// Join enrolls an influencer in a campaign and issues a promo code
	// derived deterministically from the pair, so retries never mint a
	// second code.
	Join(ctx context.Context, req JoinRequest) (*JoinResponse, error)
}

var (
	ErrInvalidTenant     = errors.New("invalid_tenant")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidDates      = errors.New("invalid_dates")
	ErrInvalidBudget     = errors.New("invalid_budget_cents")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidInfluencer = errors.New("invalid_influencer")
	ErrNotFound          = errors.New("not_found")
	ErrCampaignInactive  = errors.New("campaign_inactive")
	ErrAlreadyJoined     = errors.New("already_joined")
)
