package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type AffiliateStatus string

const (
	StatusActive  AffiliateStatus = "active"
	StatusBlocked AffiliateStatus = "blocked"
)

// Affiliate is the tenant-scoped affiliate record. CommissionTierID is the
// affiliate's current tier pointer; reassigning it fans out to every ledger
// row of the affiliate.
type Affiliate struct {
	ID               snowflake.ID    `json:"id" gorm:"primaryKey"`
	TenantID         snowflake.ID    `json:"tenant_id" gorm:"column:tenant_id;not null;index;uniqueIndex:uq_affiliate_tenant_user"`
	UserID           snowflake.ID    `json:"user_id" gorm:"column:user_id;not null;uniqueIndex:uq_affiliate_tenant_user"`
	Email            string          `json:"email" gorm:"type:text;not null"`
	Status           AffiliateStatus `json:"status" gorm:"type:text;not null;default:'active'"`
	CommissionTierID snowflake.ID    `json:"commission_tier_id" gorm:"column:commission_tier_id;not null"`
	CreatedAt        time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Affiliate) TableName() string { return "affiliates" }

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
)

// AffiliateInvite is an invitation to promote a set of products. ProductIDs
// holds the invited product IDs as strings.
type AffiliateInvite struct {
	ID         snowflake.ID   `json:"id" gorm:"primaryKey"`
	TenantID   snowflake.ID   `json:"tenant_id" gorm:"column:tenant_id;not null;index"`
	Email      string         `json:"email" gorm:"type:text;not null"`
	Token      string         `json:"token" gorm:"type:text;not null;uniqueIndex"`
	ProductIDs datatypes.JSON `json:"product_ids" gorm:"column:product_ids;type:jsonb;not null"`
	Status     InviteStatus   `json:"status" gorm:"type:text;not null;default:'pending'"`
	ExpiresAt  time.Time      `json:"expires_at" gorm:"not null"`
	CreatedAt  time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AffiliateInvite) TableName() string { return "affiliate_invites" }
