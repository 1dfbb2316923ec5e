package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	// DefaultTierName is seeded for tenants that have no tiers yet.
	DefaultTierName = "Default Tier"
	// DefaultTierPercent is the commission rate of the seeded tier.
	DefaultTierPercent = "10.00"
)

// CommissionTier is a named rate bracket gated by a minimum-sales
// threshold. The tier with the lowest MinSales is the default assigned to
// new affiliate/product pairs.
type CommissionTier struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	TenantID          snowflake.ID `json:"tenant_id" gorm:"column:tenant_id;not null;index;uniqueIndex:uq_tier_tenant_name"`
	TierName          string       `json:"tier_name" gorm:"type:text;not null;uniqueIndex:uq_tier_tenant_name"`
	CommissionPercent string       `json:"commission_percent" gorm:"type:text;not null"`
	MinSales          int64        `json:"min_sales" gorm:"not null;default:0"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CommissionTier) TableName() string { return "commission_tiers" }
