package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tenant is the isolation boundary: every other entity carries its ID and
// every query is scoped by it.
type Tenant struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	Name       string       `json:"name" gorm:"type:text;not null"`
	Slug       string       `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	OwnerEmail string       `json:"owner_email" gorm:"type:text;not null"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Tenant) TableName() string { return "tenants" }
