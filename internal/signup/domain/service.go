package domain

import (
	"context"
	"errors"
)

type SignupRequest struct {
	OrganizationName string `json:"organization_name"`
	Slug             string `json:"slug"`
	Email            string `json:"email"`
}

type SignupResponse struct {
	TenantID      string `json:"tenant_id"`
	Slug          string `json:"slug"`
	DefaultTierID string `json:"default_tier_id"`
}

// Service provisions a tenant. The default commission tier is seeded here so
// the invite path almost never hits the lazy seed.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error)
}

var (
	ErrInvalidName  = errors.New("invalid_organization_name")
	ErrInvalidSlug  = errors.New("invalid_slug")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrSlugTaken    = errors.New("slug_taken")
)
