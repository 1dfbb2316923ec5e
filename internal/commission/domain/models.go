package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RateSource records which rate a ledger row is pinned to. Storing it
// explicitly avoids inferring the mode from value equality, which is
// ambiguous when the tier rate happens to equal the product rate.
type RateSource string

const (
	SourceTier    RateSource = "tier"
	SourceProduct RateSource = "product"
)

// AffiliateProductCommission is the durable, per-(affiliate, product)
// resolved commission record. AffiliateID and TrackingLinkID stay nil until
// the invite is accepted. All percentages are fixed-point decimal strings.
type AffiliateProductCommission struct {
	ID                snowflake.ID  `json:"id" gorm:"primaryKey"`
	TenantID          snowflake.ID  `json:"tenant_id" gorm:"column:tenant_id;not null;index"`
	AffiliateID       *snowflake.ID `json:"affiliate_id,omitempty" gorm:"column:affiliate_id;index"`
	ProductID         snowflake.ID  `json:"product_id" gorm:"column:product_id;not null;index"`
	TrackingLinkID    *snowflake.ID `json:"tracking_link_id,omitempty" gorm:"column:tracking_link_id"`
	CommissionTierID  snowflake.ID  `json:"commission_tier_id" gorm:"column:commission_tier_id;not null"`
	CommissionPercent string        `json:"commission_percent" gorm:"type:text;not null"`
	ProductCommission string        `json:"product_commission" gorm:"type:text;not null;default:''"`
	FinalCommission   string        `json:"final_commission" gorm:"type:text;not null"`
	RateSource        RateSource    `json:"rate_source" gorm:"column:rate_source;type:text;not null;default:'tier'"`
	CreatedAt         time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AffiliateProductCommission) TableName() string { return "affiliate_product_commissions" }
