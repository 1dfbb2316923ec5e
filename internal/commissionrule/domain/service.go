package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rule *CommissionRule) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*CommissionRule, error)
	// List returns rules ordered by priority descending, then created_at.
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]CommissionRule, error)
	Update(ctx context.Context, db *gorm.DB, rule *CommissionRule) error
	Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error
}

// TransactionContext carries the facts a rule condition may reference.
type TransactionContext struct {
	AffiliateID snowflake.ID
	ProductID   snowflake.ID
	SaleCents   int64
	OccurredAt  time.Time
	Metadata    map[string]any
}

// Evaluator decides whether a rule's condition holds for a transaction.
// The condition grammar is not fixed yet; the shipped implementation
// rejects every evaluation with ErrEvaluatorNotConfigured.
type Evaluator interface {
	Evaluate(ctx context.Context, condition string, txn TransactionContext) (bool, error)
}

type CreateRequest struct {
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Condition string         `json:"condition"`
	Value     string         `json:"value"`
	ValueType string         `json:"value_type"`
	Priority  int            `json:"priority"`
	StartDate time.Time      `json:"start_date"`
	EndDate   *time.Time     `json:"end_date"`
	Metadata  map[string]any `json:"metadata"`
}

type UpdateRequest struct {
	ID        string     `json:"id"`
	Name      *string    `json:"name"`
	Condition *string    `json:"condition"`
	Value     *string    `json:"value"`
	Status    *string    `json:"status"`
	Priority  *int       `json:"priority"`
	EndDate   *time.Time `json:"end_date"`
}

type Response struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Condition string     `json:"condition"`
	Value     string     `json:"value"`
	ValueType string     `json:"value_type"`
	Status    string     `json:"status"`
	Priority  int        `json:"priority"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidTenant          = errors.New("invalid_tenant")
	ErrInvalidName            = errors.New("invalid_name")
	ErrInvalidType            = errors.New("invalid_type")
	ErrInvalidValue           = errors.New("invalid_value")
	ErrInvalidValueType       = errors.New("invalid_value_type")
	ErrInvalidStatus          = errors.New("invalid_status")
	ErrInvalidDateRange       = errors.New("invalid_date_range")
	ErrInvalidID              = errors.New("invalid_id")
	ErrNotFound               = errors.New("not_found")
	ErrEvaluatorNotConfigured = errors.New("rule_evaluator_not_configured")
)
