package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/affina/internal/tenantctx"
	trackingdomain "github.com/smallbiznis/affina/internal/tracking/domain"
	"github.com/smallbiznis/affina/internal/tracking/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type trackingFixture struct {
	svc      trackingdomain.Service
	db       *gorm.DB
	node     *snowflake.Node
	tenantID snowflake.ID
	ctx      context.Context
}

func setupTracking(t *testing.T) *trackingFixture {
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

	if err := db.AutoMigrate(&trackingdomain.TrackingLink{}, &trackingdomain.TrackingEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})

	tenantID := node.Generate()
	return &trackingFixture{
		svc:      svc,
		db:       db,
		node:     node,
		tenantID: tenantID,
		ctx:      tenantctx.WithTenantID(context.Background(), int64(tenantID)),
	}
}

func (f *trackingFixture) mustLink(t *testing.T) *trackingdomain.TrackingLink {
	t.Helper()
	link, err := f.svc.EnsureLink(context.Background(), nil, f.tenantID, f.node.Generate(), f.node.Generate())
	if err != nil {
		t.Fatalf("ensure link: %v", err)
	}
	return link
}

func TestEnsureLinkIdempotent(t *testing.T) {
	f := setupTracking(t)
	ctx := context.Background()

	affiliateID := f.node.Generate()
	productID := f.node.Generate()

	first, err := f.svc.EnsureLink(ctx, nil, f.tenantID, affiliateID, productID)
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if first.TrackingCode == "" {
		t.Fatalf("expected a tracking code")
	}

	second, err := f.svc.EnsureLink(ctx, nil, f.tenantID, affiliateID, productID)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if second.ID != first.ID || second.TrackingCode != first.TrackingCode {
		t.Fatalf("expected the same link, got %s and %s", first.ID, second.ID)
	}

	var count int64
	if err := f.db.Raw("SELECT COUNT(*) FROM tracking_links WHERE tenant_id = ?", f.tenantID).Scan(&count).Error; err != nil {
		t.Fatalf("count links: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 link, got %d", count)
	}
}

func TestRecordEventUnknownCode(t *testing.T) {
	f := setupTracking(t)

	_, err := f.svc.RecordEvent(context.Background(), trackingdomain.EventRequest{
		Type:         "click",
		TrackingCode: "does-not-exist",
	})
	if err != trackingdomain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordEventInvalidType(t *testing.T) {
	f := setupTracking(t)
	link := f.mustLink(t)

	_, err := f.svc.RecordEvent(context.Background(), trackingdomain.EventRequest{
		Type:         "pageview",
		TrackingCode: link.TrackingCode,
	})
	if err != trackingdomain.ErrInvalidEventType {
		t.Fatalf("expected ErrInvalidEventType, got %v", err)
	}
}

func TestConcurrentClicksCountExactly(t *testing.T) {
	f := setupTracking(t)
	link := f.mustLink(t)
	ctx := context.Background()

	const clicks = 50
	var wg sync.WaitGroup
	errCh := make(chan error, clicks)
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.RecordEvent(ctx, trackingdomain.EventRequest{
				Type:         "click",
				TrackingCode: link.TrackingCode,
			}); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("record event: %v", err)
	}

	metrics, err := f.svc.Metrics(f.ctx, link.TrackingCode)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if metrics.TotalClicks != clicks {
		t.Fatalf("expected %d clicks, got %d", clicks, metrics.TotalClicks)
	}

	var events int64
	if err := f.db.Raw("SELECT COUNT(*) FROM tracking_events WHERE tracking_link_id = ?", link.ID).Scan(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != clicks {
		t.Fatalf("expected %d event rows, got %d", clicks, events)
	}
}

func TestMetricsScopedByTenant(t *testing.T) {
	f := setupTracking(t)
	link := f.mustLink(t)

	otherCtx := tenantctx.WithTenantID(context.Background(), int64(f.node.Generate()))
	if _, err := f.svc.Metrics(otherCtx, link.TrackingCode); err != trackingdomain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign tenant, got %v", err)
	}

	if _, err := f.svc.Metrics(context.Background(), link.TrackingCode); err != trackingdomain.ErrInvalidTenant {
		t.Fatalf("expected ErrInvalidTenant without tenant context, got %v", err)
	}

	metrics, err := f.svc.Metrics(f.ctx, link.TrackingCode)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if metrics.TrackingCode != link.TrackingCode {
		t.Fatalf("expected owning tenant to read its link, got %+v", metrics)
	}
}

func TestSaleEventsSumAmounts(t *testing.T) {
	f := setupTracking(t)
	link := f.mustLink(t)
	ctx := context.Background()

	for _, amount := range []int64{1000, 2500, 499} {
		if _, err := f.svc.RecordEvent(ctx, trackingdomain.EventRequest{
			Type:         "sale",
			TrackingCode: link.TrackingCode,
			AmountCents:  amount,
		}); err != nil {
			t.Fatalf("record sale: %v", err)
		}
	}

	metrics, err := f.svc.Metrics(f.ctx, link.TrackingCode)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if metrics.TotalSalesCents != 3999 {
		t.Fatalf("expected 3999 sale cents, got %d", metrics.TotalSalesCents)
	}
	if metrics.TotalClicks != 0 {
		t.Fatalf("sales must not bump clicks, got %d", metrics.TotalClicks)
	}
}

func TestMetricsConversionRate(t *testing.T) {
	f := setupTracking(t)
	link := f.mustLink(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := f.svc.RecordEvent(ctx, trackingdomain.EventRequest{
			Type:         "click",
			TrackingCode: link.TrackingCode,
		}); err != nil {
			t.Fatalf("record click: %v", err)
		}
	}
	if _, err := f.svc.RecordEvent(ctx, trackingdomain.EventRequest{
		Type:         "conversion",
		TrackingCode: link.TrackingCode,
	}); err != nil {
		t.Fatalf("record conversion: %v", err)
	}

	metrics, err := f.svc.Metrics(f.ctx, link.TrackingCode)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if metrics.ConversionRate != 0.25 {
		t.Fatalf("expected conversion rate 0.25, got %f", metrics.ConversionRate)
	}
}

func TestNegativeAmountRejected(t *testing.T) {
	f := setupTracking(t)
	link := f.mustLink(t)

	_, err := f.svc.RecordEvent(context.Background(), trackingdomain.EventRequest{
		Type:         "sale",
		TrackingCode: link.TrackingCode,
		AmountCents:  -100,
	})
	if err != trackingdomain.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
