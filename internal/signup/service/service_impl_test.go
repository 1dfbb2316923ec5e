package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/smallbiznis/affina/internal/commissiontier/domain"
	tierrepo "github.com/smallbiznis/affina/internal/commissiontier/repository"
	tierservice "github.com/smallbiznis/affina/internal/commissiontier/service"
	signupdomain "github.com/smallbiznis/affina/internal/signup/domain"
	tenantdomain "github.com/smallbiznis/affina/internal/tenant/domain"
	tenantrepo "github.com/smallbiznis/affina/internal/tenant/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSignup(t *testing.T) (signupdomain.Service, *gorm.DB) {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error
	_ = db.Exec("PRAGMA journal_mode = WAL").Error

	if err := db.AutoMigrate(&tenantdomain.Tenant{}, &tierdomain.CommissionTier{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tierSvc := tierservice.New(tierservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  tierrepo.Provide(),
	})

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		TenantRepo: tenantrepo.Provide(),
		TierSvc:    tierSvc,
	})
	return svc, db
}

func TestSignupProvisionsTenantAndTier(t *testing.T) {
	svc, db := setupSignup(t)

	result, err := svc.Signup(context.Background(), signupdomain.SignupRequest{
		OrganizationName: "Acme Outfitters",
		Slug:             "acme-outfitters",
		Email:            "owner@acme.example",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if result.TenantID == "" || result.DefaultTierID == "" {
		t.Fatalf("expected tenant and tier ids, got %+v", result)
	}

	var tiers int64
	if err := db.Raw("SELECT COUNT(*) FROM commission_tiers WHERE tenant_id = ?", result.TenantID).Scan(&tiers).Error; err != nil {
		t.Fatalf("count tiers: %v", err)
	}
	if tiers != 1 {
		t.Fatalf("expected 1 seeded tier, got %d", tiers)
	}

	var ownerEmail string
	if err := db.Raw("SELECT owner_email FROM tenants WHERE id = ?", result.TenantID).Scan(&ownerEmail).Error; err != nil {
		t.Fatalf("read owner email: %v", err)
	}
	if ownerEmail != "owner@acme.example" {
		t.Fatalf("expected owner email persisted, got %q", ownerEmail)
	}
}

func TestSignupDuplicateSlug(t *testing.T) {
	svc, _ := setupSignup(t)
	ctx := context.Background()

	req := signupdomain.SignupRequest{
		OrganizationName: "Acme",
		Slug:             "acme",
		Email:            "owner@acme.example",
	}
	if _, err := svc.Signup(ctx, req); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := svc.Signup(ctx, req); err != signupdomain.ErrSlugTaken {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _ := setupSignup(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  signupdomain.SignupRequest
		want error
	}{
		{"missing name", signupdomain.SignupRequest{Slug: "acme", Email: "a@b.c"}, signupdomain.ErrInvalidName},
		{"bad slug", signupdomain.SignupRequest{OrganizationName: "Acme", Slug: "Not A Slug!", Email: "a@b.c"}, signupdomain.ErrInvalidSlug},
		{"bad email", signupdomain.SignupRequest{OrganizationName: "Acme", Slug: "acme", Email: "nope"}, signupdomain.ErrInvalidEmail},
	}
	for _, tc := range cases {
		if _, err := svc.Signup(ctx, tc.req); err != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}
