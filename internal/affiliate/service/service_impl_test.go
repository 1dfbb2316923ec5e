package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	affiliatedomain "github.com/smallbiznis/affina/internal/affiliate/domain"
	affiliaterepo "github.com/smallbiznis/affina/internal/affiliate/repository"
	commissiondomain "github.com/smallbiznis/affina/internal/commission/domain"
	commissionrepo "github.com/smallbiznis/affina/internal/commission/repository"
	commissionservice "github.com/smallbiznis/affina/internal/commission/service"
	tierdomain "github.com/smallbiznis/affina/internal/commissiontier/domain"
	tierrepo "github.com/smallbiznis/affina/internal/commissiontier/repository"
	tierservice "github.com/smallbiznis/affina/internal/commissiontier/service"
	productdomain "github.com/smallbiznis/affina/internal/product/domain"
	productrepo "github.com/smallbiznis/affina/internal/product/repository"
	"github.com/smallbiznis/affina/internal/tenantctx"
	trackingdomain "github.com/smallbiznis/affina/internal/tracking/domain"
	trackingrepo "github.com/smallbiznis/affina/internal/tracking/repository"
	trackingservice "github.com/smallbiznis/affina/internal/tracking/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type emailStub struct {
	mu    sync.Mutex
	sends int
	err   error
}

func (e *emailStub) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sends++
	return e.err
}

func (e *emailStub) Sends() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sends
}

type affiliateFixture struct {
	svc      affiliatedomain.Service
	db       *gorm.DB
	node     *snowflake.Node
	email    *emailStub
	tenantID snowflake.ID
	ctx      context.Context
}

func setupAffiliate(t *testing.T) *affiliateFixture {
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
		&commissiondomain.AffiliateProductCommission{},
		&affiliatedomain.Affiliate{},
		&affiliatedomain.AffiliateInvite{},
		&trackingdomain.TrackingLink{},
		&trackingdomain.TrackingEvent{},
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
	commissionSvc := commissionservice.New(commissionservice.Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Repo:          commissionrepo.Provide(),
		TierSvc:       tierSvc,
		TierRepo:      tierrepo.Provide(),
		ProductRepo:   productrepo.Provide(),
		AffiliateRepo: affiliaterepo.Provide(),
	})
	trackingSvc := trackingservice.New(trackingservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  trackingrepo.Provide(),
	})

	mail := &emailStub{}
	svc := New(Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Repo:          affiliaterepo.Provide(),
		CommissionSvc: commissionSvc,
		TierSvc:       tierSvc,
		TrackingSvc:   trackingSvc,
		Email:         mail,
	})

	tenantID := node.Generate()
	return &affiliateFixture{
		svc:      svc,
		db:       db,
		node:     node,
		email:    mail,
		tenantID: tenantID,
		ctx:      tenantctx.WithTenantID(context.Background(), int64(tenantID)),
	}
}

func (f *affiliateFixture) seedProduct(t *testing.T, percent string) *productdomain.Product {
	t.Helper()
	now := time.Now().UTC()
	product := &productdomain.Product{
		ID:                f.node.Generate(),
		TenantID:          f.tenantID,
		Name:              "Widget",
		SKUCode:           fmt.Sprintf("SKU-%s", f.node.Generate()),
		PriceCents:        1999,
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

func (f *affiliateFixture) count(t *testing.T, query string, args ...any) int64 {
	t.Helper()
	var count int64
	if err := f.db.Raw(query, args...).Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func TestInviteCreatesPlaceholderRows(t *testing.T) {
	f := setupAffiliate(t)
	productA := f.seedProduct(t, "")
	productB := f.seedProduct(t, "8.50")

	invite, err := f.svc.Invite(f.ctx, affiliatedomain.InviteRequest{
		Email:      "new.partner@example.com",
		ProductIDs: []string{productA.ID.String(), productB.ID.String()},
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if invite.Token == "" {
		t.Fatalf("expected an invite token")
	}
	if invite.Status != "pending" {
		t.Fatalf("expected pending, got %s", invite.Status)
	}

	placeholders := f.count(t, "SELECT COUNT(*) FROM affiliate_product_commissions WHERE tenant_id = ? AND affiliate_id IS NULL", f.tenantID)
	if placeholders != 2 {
		t.Fatalf("expected 2 placeholder rows, got %d", placeholders)
	}
	if got := f.email.Sends(); got != 1 {
		t.Fatalf("expected 1 email, got %d", got)
	}
}

func TestInviteEmailFailureStillSucceeds(t *testing.T) {
	f := setupAffiliate(t)
	f.email.err = errors.New("smtp down")
	product := f.seedProduct(t, "")

	invite, err := f.svc.Invite(f.ctx, affiliatedomain.InviteRequest{
		Email:      "partner@example.com",
		ProductIDs: []string{product.ID.String()},
	})
	if err != nil {
		t.Fatalf("invite must survive email failure: %v", err)
	}

	invites := f.count(t, "SELECT COUNT(*) FROM affiliate_invites WHERE token = ?", invite.Token)
	if invites != 1 {
		t.Fatalf("expected the invite to be persisted, got %d", invites)
	}
}

func TestInviteValidation(t *testing.T) {
	f := setupAffiliate(t)
	product := f.seedProduct(t, "")

	if _, err := f.svc.Invite(f.ctx, affiliatedomain.InviteRequest{
		Email:      "not-an-email",
		ProductIDs: []string{product.ID.String()},
	}); err != affiliatedomain.ErrInvalidEmail {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	if _, err := f.svc.Invite(f.ctx, affiliatedomain.InviteRequest{
		Email: "partner@example.com",
	}); err != affiliatedomain.ErrInvalidProducts {
		t.Fatalf("expected ErrInvalidProducts, got %v", err)
	}
}

func TestAcceptBindsAffiliateAndLinks(t *testing.T) {
	f := setupAffiliate(t)
	productA := f.seedProduct(t, "")
	productB := f.seedProduct(t, "8.50")

	invite, err := f.svc.Invite(f.ctx, affiliatedomain.InviteRequest{
		Email:      "partner@example.com",
		ProductIDs: []string{productA.ID.String(), productB.ID.String()},
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	userID := f.node.Generate()
	result, err := f.svc.Accept(f.ctx, affiliatedomain.AcceptRequest{
		Token:  invite.Token,
		UserID: userID.String(),
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if len(result.TrackingCodes) != 2 {
		t.Fatalf("expected 2 tracking codes, got %d", len(result.TrackingCodes))
	}

	unbound := f.count(t, "SELECT COUNT(*) FROM affiliate_product_commissions WHERE tenant_id = ? AND affiliate_id IS NULL", f.tenantID)
	if unbound != 0 {
		t.Fatalf("expected no placeholder rows after accept, got %d", unbound)
	}
	bound := f.count(t, "SELECT COUNT(*) FROM affiliate_product_commissions WHERE tenant_id = ? AND affiliate_id IS NOT NULL", f.tenantID)
	if bound != 2 {
		t.Fatalf("expected 2 bound rows, got %d", bound)
	}
	links := f.count(t, "SELECT COUNT(*) FROM tracking_links WHERE tenant_id = ?", f.tenantID)
	if links != 2 {
		t.Fatalf("expected 2 tracking links, got %d", links)
	}

	// Re-accepting a consumed invite is a conflict.
	if _, err := f.svc.Accept(f.ctx, affiliatedomain.AcceptRequest{
		Token:  invite.Token,
		UserID: userID.String(),
	}); err != affiliatedomain.ErrInviteAccepted {
		t.Fatalf("expected ErrInviteAccepted, got %v", err)
	}
}

func TestAcceptExpiredInvite(t *testing.T) {
	f := setupAffiliate(t)
	product := f.seedProduct(t, "")

	invite, err := f.svc.Invite(f.ctx, affiliatedomain.InviteRequest{
		Email:      "partner@example.com",
		ProductIDs: []string{product.ID.String()},
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	past := time.Now().UTC().Add(-time.Hour)
	if err := f.db.Model(&affiliatedomain.AffiliateInvite{}).
		Where("token = ?", invite.Token).
		Update("expires_at", past).Error; err != nil {
		t.Fatalf("expire invite: %v", err)
	}

	_, err = f.svc.Accept(f.ctx, affiliatedomain.AcceptRequest{
		Token:  invite.Token,
		UserID: f.node.Generate().String(),
	})
	if err != affiliatedomain.ErrInviteExpired {
		t.Fatalf("expected ErrInviteExpired, got %v", err)
	}
}

func TestConcurrentAcceptCreatesNothingTwice(t *testing.T) {
	f := setupAffiliate(t)
	product := f.seedProduct(t, "")

	invite, err := f.svc.Invite(f.ctx, affiliatedomain.InviteRequest{
		Email:      "partner@example.com",
		ProductIDs: []string{product.ID.String()},
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	userID := f.node.Generate()

	const attempts = 6
	var wg sync.WaitGroup
	errCh := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Accept(f.ctx, affiliatedomain.AcceptRequest{
				Token:  invite.Token,
				UserID: userID.String(),
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	var succeeded int
	for err := range errCh {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, affiliatedomain.ErrInviteAccepted):
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	if succeeded == 0 {
		t.Fatalf("expected at least one accept to succeed")
	}

	affiliates := f.count(t, "SELECT COUNT(*) FROM affiliates WHERE tenant_id = ?", f.tenantID)
	if affiliates != 1 {
		t.Fatalf("expected 1 affiliate, got %d", affiliates)
	}
	links := f.count(t, "SELECT COUNT(*) FROM tracking_links WHERE tenant_id = ?", f.tenantID)
	if links != 1 {
		t.Fatalf("expected 1 tracking link, got %d", links)
	}
	rows := f.count(t, "SELECT COUNT(*) FROM affiliate_product_commissions WHERE tenant_id = ?", f.tenantID)
	if rows != 1 {
		t.Fatalf("expected 1 ledger row, got %d", rows)
	}
}

func TestUpdateTierDelegatesToEngine(t *testing.T) {
	f := setupAffiliate(t)
	product := f.seedProduct(t, "")

	invite, err := f.svc.Invite(f.ctx, affiliatedomain.InviteRequest{
		Email:      "partner@example.com",
		ProductIDs: []string{product.ID.String()},
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	result, err := f.svc.Accept(f.ctx, affiliatedomain.AcceptRequest{
		Token:  invite.Token,
		UserID: f.node.Generate().String(),
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	now := time.Now().UTC()
	gold := &tierdomain.CommissionTier{
		ID:                f.node.Generate(),
		TenantID:          f.tenantID,
		TierName:          "Gold",
		CommissionPercent: "20.00",
		MinSales:          100,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := f.db.Create(gold).Error; err != nil {
		t.Fatalf("seed tier: %v", err)
	}

	if err := f.svc.UpdateTier(f.ctx, result.AffiliateID, gold.ID.String()); err != nil {
		t.Fatalf("update tier: %v", err)
	}

	var row commissiondomain.AffiliateProductCommission
	if err := f.db.Where("tenant_id = ?", f.tenantID).First(&row).Error; err != nil {
		t.Fatalf("reload row: %v", err)
	}
	if row.CommissionTierID != gold.ID {
		t.Fatalf("ledger row not moved to new tier")
	}
	if row.FinalCommission != "20.00" {
		t.Fatalf("expected final 20.00, got %s", row.FinalCommission)
	}
}
