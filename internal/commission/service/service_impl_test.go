package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	affiliatedomain "github.com/smallbiznis/affina/internal/affiliate/domain"
	affiliaterepo "github.com/smallbiznis/affina/internal/affiliate/repository"
	commissiondomain "github.com/smallbiznis/affina/internal/commission/domain"
	commissionrepo "github.com/smallbiznis/affina/internal/commission/repository"
	tierdomain "github.com/smallbiznis/affina/internal/commissiontier/domain"
	tierrepo "github.com/smallbiznis/affina/internal/commissiontier/repository"
	tierservice "github.com/smallbiznis/affina/internal/commissiontier/service"
	productdomain "github.com/smallbiznis/affina/internal/product/domain"
	productrepo "github.com/smallbiznis/affina/internal/product/repository"
	"github.com/smallbiznis/affina/internal/tenantctx"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type engineFixture struct {
	svc      commissiondomain.Service
	db       *gorm.DB
	node     *snowflake.Node
	tenantID snowflake.ID
	ctx      context.Context
}

func setupEngine(t *testing.T) *engineFixture {
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

	err = db.AutoMigrate(
		&productdomain.Product{},
		&tierdomain.CommissionTier{},
		&affiliatedomain.Affiliate{},
		&commissiondomain.AffiliateProductCommission{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tierSvc := tierservice.New(tierservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  tierrepo.Provide(),
	})

	svc := New(Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Repo:          commissionrepo.Provide(),
		TierSvc:       tierSvc,
		TierRepo:      tierrepo.Provide(),
		ProductRepo:   productrepo.Provide(),
		AffiliateRepo: affiliaterepo.Provide(),
	})

	tenantID := node.Generate()
	return &engineFixture{
		svc:      svc,
		db:       db,
		node:     node,
		tenantID: tenantID,
		ctx:      tenantctx.WithTenantID(context.Background(), int64(tenantID)),
	}
}

func (f *engineFixture) seedProduct(t *testing.T, percent string) *productdomain.Product {
	t.Helper()
	now := time.Now().UTC()
	product := &productdomain.Product{
		ID:                f.node.Generate(),
		TenantID:          f.tenantID,
		Name:              "Widget",
		SKUCode:           fmt.Sprintf("SKU-%s", f.node.Generate()),
		PriceCents:        4999,
		CommissionPercent: percent,
		Status:            productdomain.StatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (f *engineFixture) seedTier(t *testing.T, name, percent string, minSales int64) *tierdomain.CommissionTier {
	t.Helper()
	now := time.Now().UTC()
	tier := &tierdomain.CommissionTier{
		ID:                f.node.Generate(),
		TenantID:          f.tenantID,
		TierName:          name,
		CommissionPercent: percent,
		MinSales:          minSales,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := f.db.Create(tier).Error; err != nil {
		t.Fatalf("seed tier: %v", err)
	}
	return tier
}

func (f *engineFixture) seedAffiliate(t *testing.T, tierID snowflake.ID) *affiliatedomain.Affiliate {
	t.Helper()
	now := time.Now().UTC()
	affiliate := &affiliatedomain.Affiliate{
		ID:               f.node.Generate(),
		TenantID:         f.tenantID,
		UserID:           f.node.Generate(),
		Email:            "partner@example.com",
		Status:           affiliatedomain.StatusActive,
		CommissionTierID: tierID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := f.db.Create(affiliate).Error; err != nil {
		t.Fatalf("seed affiliate: %v", err)
	}
	return affiliate
}

func TestAssignDefaultSeedsTierAndPlaceholder(t *testing.T) {
	f := setupEngine(t)
	product := f.seedProduct(t, "")

	row, err := f.svc.AssignDefault(f.ctx, nil, f.tenantID, product.ID, false)
	if err != nil {
		t.Fatalf("assign default: %v", err)
	}

	if row.AffiliateID != nil {
		t.Fatalf("placeholder must not carry an affiliate")
	}
	if row.CommissionPercent != tierdomain.DefaultTierPercent {
		t.Fatalf("expected tier percent %s, got %s", tierdomain.DefaultTierPercent, row.CommissionPercent)
	}
	if row.FinalCommission != tierdomain.DefaultTierPercent {
		t.Fatalf("expected final %s, got %s", tierdomain.DefaultTierPercent, row.FinalCommission)
	}
	if row.RateSource != commissiondomain.SourceTier {
		t.Fatalf("expected rate source tier, got %s", row.RateSource)
	}
}

func TestAssignDefaultProductRatePreferred(t *testing.T) {
	f := setupEngine(t)
	product := f.seedProduct(t, "8.50")

	row, err := f.svc.AssignDefault(f.ctx, nil, f.tenantID, product.ID, true)
	if err != nil {
		t.Fatalf("assign default: %v", err)
	}

	if row.FinalCommission != "8.50" {
		t.Fatalf("expected final 8.50, got %s", row.FinalCommission)
	}
	if row.RateSource != commissiondomain.SourceProduct {
		t.Fatalf("expected rate source product, got %s", row.RateSource)
	}
	if row.CommissionPercent != tierdomain.DefaultTierPercent {
		t.Fatalf("tier snapshot must still record %s, got %s", tierdomain.DefaultTierPercent, row.CommissionPercent)
	}
}

func TestBindAffiliateFillsPlaceholder(t *testing.T) {
	f := setupEngine(t)
	product := f.seedProduct(t, "")

	placeholder, err := f.svc.AssignDefault(f.ctx, nil, f.tenantID, product.ID, false)
	if err != nil {
		t.Fatalf("assign default: %v", err)
	}

	affiliate := f.seedAffiliate(t, placeholder.CommissionTierID)
	linkID := f.node.Generate()

	bound, err := f.svc.BindAffiliate(f.ctx, nil, f.tenantID, product.ID, affiliate.ID, linkID)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if bound.ID != placeholder.ID {
		t.Fatalf("expected the placeholder to be reused, got a new row")
	}
	if bound.AffiliateID == nil || *bound.AffiliateID != affiliate.ID {
		t.Fatalf("affiliate not bound")
	}
	if bound.TrackingLinkID == nil || *bound.TrackingLinkID != linkID {
		t.Fatalf("tracking link not bound")
	}

	// Binding again must not mint a second row.
	again, err := f.svc.BindAffiliate(f.ctx, nil, f.tenantID, product.ID, affiliate.ID, linkID)
	if err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if again.ID != bound.ID {
		t.Fatalf("rebind created a new row")
	}
	if got := f.countRows(t); got != 1 {
		t.Fatalf("expected 1 ledger row, got %d", got)
	}
}

func TestBindAffiliateNoTierFails(t *testing.T) {
	f := setupEngine(t)
	product := f.seedProduct(t, "5.00")
	affiliateID := f.node.Generate()

	_, err := f.svc.BindAffiliate(f.ctx, nil, f.tenantID, product.ID, affiliateID, f.node.Generate())
	if err != commissiondomain.ErrNoTierConfigured {
		t.Fatalf("expected ErrNoTierConfigured, got %v", err)
	}
}

func TestToggleRateSourceRoundTrip(t *testing.T) {
	f := setupEngine(t)
	product := f.seedProduct(t, "8.50")

	if _, err := f.svc.AssignDefault(f.ctx, nil, f.tenantID, product.ID, false); err != nil {
		t.Fatalf("assign default: %v", err)
	}
	tier, err := tierrepo.Provide().Lowest(f.ctx, f.db, f.tenantID)
	if err != nil || tier == nil {
		t.Fatalf("lowest tier: %v", err)
	}
	affiliate := f.seedAffiliate(t, tier.ID)
	if _, err := f.svc.BindAffiliate(f.ctx, nil, f.tenantID, product.ID, affiliate.ID, f.node.Generate()); err != nil {
		t.Fatalf("bind: %v", err)
	}

	toProduct, err := f.svc.ToggleRateSource(f.ctx, commissiondomain.ToggleRequest{
		AffiliateID:          affiliate.ID.String(),
		ProductID:            product.ID.String(),
		UseProductCommission: true,
	})
	if err != nil {
		t.Fatalf("toggle to product: %v", err)
	}
	if toProduct.FinalCommission != "8.50" || toProduct.RateSource != "product" {
		t.Fatalf("expected 8.50/product, got %s/%s", toProduct.FinalCommission, toProduct.RateSource)
	}

	toTier, err := f.svc.ToggleRateSource(f.ctx, commissiondomain.ToggleRequest{
		AffiliateID:          affiliate.ID.String(),
		ProductID:            product.ID.String(),
		UseProductCommission: false,
	})
	if err != nil {
		t.Fatalf("toggle to tier: %v", err)
	}
	if toTier.FinalCommission != tierdomain.DefaultTierPercent || toTier.RateSource != "tier" {
		t.Fatalf("expected %s/tier, got %s/%s", tierdomain.DefaultTierPercent, toTier.FinalCommission, toTier.RateSource)
	}
}

func TestToggleUnknownPairNotFound(t *testing.T) {
	f := setupEngine(t)

	_, err := f.svc.ToggleRateSource(f.ctx, commissiondomain.ToggleRequest{
		AffiliateID: f.node.Generate().String(),
		ProductID:   f.node.Generate().String(),
	})
	if err != commissiondomain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReassignTierFansOutToTierRowsOnly(t *testing.T) {
	f := setupEngine(t)
	bronze := f.seedTier(t, "Bronze", "10.00", 0)
	gold := f.seedTier(t, "Gold", "20.00", 100)
	affiliate := f.seedAffiliate(t, bronze.ID)

	productA := f.seedProduct(t, "")
	productB := f.seedProduct(t, "")
	productC := f.seedProduct(t, "8.50")

	for _, productID := range []snowflake.ID{productA.ID, productB.ID, productC.ID} {
		if _, err := f.svc.BindAffiliate(f.ctx, nil, f.tenantID, productID, affiliate.ID, f.node.Generate()); err != nil {
			t.Fatalf("bind %s: %v", productID, err)
		}
	}

	// Pin product C to its own rate.
	if _, err := f.svc.ToggleRateSource(f.ctx, commissiondomain.ToggleRequest{
		AffiliateID:          affiliate.ID.String(),
		ProductID:            productC.ID.String(),
		UseProductCommission: true,
	}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	// Move products A and B onto the tier rate.
	for _, productID := range []snowflake.ID{productA.ID, productB.ID} {
		if _, err := f.svc.ToggleRateSource(f.ctx, commissiondomain.ToggleRequest{
			AffiliateID:          affiliate.ID.String(),
			ProductID:            productID.String(),
			UseProductCommission: false,
		}); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}

	rows, err := f.svc.ReassignTier(f.ctx, commissiondomain.ReassignTierRequest{
		AffiliateID: affiliate.ID.String(),
		NewTierID:   gold.ID.String(),
	})
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	var tierMoved, productKept int
	for _, row := range rows {
		switch row.RateSource {
		case "tier":
			tierMoved++
			if row.CommissionTierID != gold.ID.String() {
				t.Fatalf("tier row not moved to gold")
			}
			if row.FinalCommission != "20.00" {
				t.Fatalf("expected final 20.00, got %s", row.FinalCommission)
			}
		case "product":
			productKept++
			if row.FinalCommission != "8.50" {
				t.Fatalf("product row must keep 8.50, got %s", row.FinalCommission)
			}
			if row.CommissionTierID == gold.ID.String() {
				t.Fatalf("product row tier snapshot must stay untouched")
			}
		}
	}
	if tierMoved != 2 || productKept != 1 {
		t.Fatalf("expected 2 tier rows and 1 product row, got %d/%d", tierMoved, productKept)
	}

	var updated affiliatedomain.Affiliate
	if err := f.db.Where("id = ?", affiliate.ID).First(&updated).Error; err != nil {
		t.Fatalf("reload affiliate: %v", err)
	}
	if updated.CommissionTierID != gold.ID {
		t.Fatalf("affiliate tier pointer not updated")
	}
}

func TestReassignTierUnknownTier(t *testing.T) {
	f := setupEngine(t)
	bronze := f.seedTier(t, "Bronze", "10.00", 0)
	affiliate := f.seedAffiliate(t, bronze.ID)

	_, err := f.svc.ReassignTier(f.ctx, commissiondomain.ReassignTierRequest{
		AffiliateID: affiliate.ID.String(),
		NewTierID:   f.node.Generate().String(),
	})
	if err != commissiondomain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerScopedByTenant(t *testing.T) {
	f := setupEngine(t)
	product := f.seedProduct(t, "")
	bronze := f.seedTier(t, "Bronze", "10.00", 0)
	affiliate := f.seedAffiliate(t, bronze.ID)

	linkID := f.node.Generate()
	if _, err := f.svc.BindAffiliate(f.ctx, f.db, f.tenantID, product.ID, affiliate.ID, linkID); err != nil {
		t.Fatalf("bind: %v", err)
	}

	otherCtx := tenantctx.WithTenantID(context.Background(), int64(f.node.Generate()))
	rows, err := f.svc.ListForAffiliate(otherCtx, affiliate.ID.String())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows across tenants, got %d", len(rows))
	}

	rows, err = f.svc.ListForAffiliate(f.ctx, affiliate.ID.String())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row in owning tenant, got %d", len(rows))
	}
}

func (f *engineFixture) countRows(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Raw("SELECT COUNT(*) FROM affiliate_product_commissions WHERE tenant_id = ?", f.tenantID).Scan(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
