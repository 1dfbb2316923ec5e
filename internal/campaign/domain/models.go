package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type CampaignStatus string

const (
	StatusDraft  CampaignStatus = "draft"
	StatusActive CampaignStatus = "active"
	StatusEnded  CampaignStatus = "ended"
)

type Campaign struct {
	ID          snowflake.ID   `json:"id" gorm:"primaryKey"`
	TenantID    snowflake.ID   `json:"tenant_id" gorm:"column:tenant_id;not null;index"`
	Name        string         `json:"name" gorm:"type:text;not null"`
	Status      CampaignStatus `json:"status" gorm:"type:text;not null;default:'draft'"`
	StartsAt    time.Time      `json:"starts_at" gorm:"column:starts_at;not null"`
	EndsAt      *time.Time     `json:"ends_at,omitempty" gorm:"column:ends_at"`
	BudgetCents int64          `json:"budget_cents" gorm:"column:budget_cents;not null;default:0"`
	CreatedAt   time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Campaign) TableName() string { return "campaigns" }

// CampaignParticipation records one influencer's membership in a campaign.
// PromoCodes holds the codes issued to the influencer as a JSON string
// array.
type CampaignParticipation struct {
	ID           snowflake.ID   `json:"id" gorm:"primaryKey"`
	TenantID     snowflake.ID   `json:"tenant_id" gorm:"column:tenant_id;not null;index"`
	CampaignID   snowflake.ID   `json:"campaign_id" gorm:"column:campaign_id;not null;uniqueIndex:uq_participation_campaign_influencer"`
	InfluencerID snowflake.ID   `json:"influencer_id" gorm:"column:influencer_id;not null;uniqueIndex:uq_participation_campaign_influencer"`
	PromoCodes   datatypes.JSON `json:"promo_codes" gorm:"column:promo_codes;type:jsonb;not null"`
	CreatedAt    time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CampaignParticipation) TableName() string { return "campaign_participations" }
