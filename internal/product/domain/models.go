package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ProductStatus string

const (
	StatusActive   ProductStatus = "active"
	StatusInactive ProductStatus = "inactive"
)

// Product belongs to a tenant. CommissionPercent is the product's own
// suggested rate, stored as a fixed-point decimal string; empty means the
// product carries no rate of its own.
type Product struct {
	ID                snowflake.ID  `json:"id" gorm:"primaryKey"`
	TenantID          snowflake.ID  `json:"tenant_id" gorm:"column:tenant_id;not null;index"`
	Name              string        `json:"name" gorm:"type:text;not null"`
	SKUCode           string        `json:"sku_code" gorm:"column:sku_code;type:text;not null"`
	PriceCents        int64         `json:"price_cents" gorm:"not null;default:0"`
	CommissionPercent string        `json:"commission_percent" gorm:"type:text;not null;default:''"`
	Status            ProductStatus `json:"status" gorm:"type:text;not null;default:'active'"`
	CreatedAt         time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }
