package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type RuleType string

const (
	TypeBonus      RuleType = "bonus"
	TypeMultiplier RuleType = "multiplier"
	TypePercentage RuleType = "percentage"
)

type ValueType string

const (
	ValueFixed      ValueType = "fixed"
	ValuePercentage ValueType = "percentage"
	ValueMultiplier ValueType = "multiplier"
)

type RuleStatus string

const (
	StatusActive   RuleStatus = "active"
	StatusInactive RuleStatus = "inactive"
)

// CommissionRule is a declared, time-bounded commission adjustment.
// Condition is an opaque expression; it is stored and listed but only
// applied through an Evaluator implementation.
type CommissionRule struct {
	ID        snowflake.ID      `json:"id" gorm:"primaryKey"`
	TenantID  snowflake.ID      `json:"tenant_id" gorm:"column:tenant_id;not null;index"`
	Name      string            `json:"name" gorm:"type:text;not null"`
	Type      RuleType          `json:"type" gorm:"type:text;not null"`
	Condition string            `json:"condition" gorm:"type:text;not null;default:''"`
	Value     string            `json:"value" gorm:"type:text;not null"`
	ValueType ValueType         `json:"value_type" gorm:"column:value_type;type:text;not null"`
	Status    RuleStatus        `json:"status" gorm:"type:text;not null;default:'active'"`
	Priority  int               `json:"priority" gorm:"not null;default:0"`
	StartDate time.Time         `json:"start_date" gorm:"not null"`
	EndDate   *time.Time        `json:"end_date,omitempty"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CommissionRule) TableName() string { return "commission_rules" }
