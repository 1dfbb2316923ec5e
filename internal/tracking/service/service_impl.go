package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smallbiznis/affina/internal/ratelimit"
	"github.com/smallbiznis/affina/internal/tenantctx"
	trackingdomain "github.com/smallbiznis/affina/internal/tracking/domain"
	"github.com/smallbiznis/affina/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	eventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "affina_tracking_events_ingested_total",
		Help: "Tracking events accepted, by event type.",
	}, []string{"event_type"})

	eventsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "affina_tracking_events_throttled_total",
		Help: "Tracking events rejected by the per-code rate limit.",
	})
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    trackingdomain.Repository
	Limiter *ratelimit.TrackingIngestLimiter `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    trackingdomain.Repository
	limiter *ratelimit.TrackingIngestLimiter
}

func New(p Params) trackingdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("tracking.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		limiter: p.Limiter,
	}
}

func (s *Service) EnsureLink(ctx context.Context, tx *gorm.DB, tenantID, affiliateID, productID snowflake.ID) (*trackingdomain.TrackingLink, error) {
	if tx == nil {
		tx = s.db
	}

	existing, err := s.repo.FindLinkByAffiliateProduct(ctx, tx, tenantID, affiliateID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	id := s.genID.Generate()
	link := &trackingdomain.TrackingLink{
		ID:           id,
		TenantID:     tenantID,
		AffiliateID:  affiliateID,
		ProductID:    productID,
		TrackingCode: id.Base58(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.InsertLink(ctx, tx, link); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost the create race; the existing link wins.
			return s.repo.FindLinkByAffiliateProduct(ctx, tx, tenantID, affiliateID, productID)
		}
		return nil, err
	}
	return link, nil
}

func (s *Service) RecordEvent(ctx context.Context, req trackingdomain.EventRequest) (*trackingdomain.EventResponse, error) {
	code := strings.TrimSpace(req.TrackingCode)
	if code == "" {
		return nil, trackingdomain.ErrInvalidCode
	}

	eventType := trackingdomain.EventType(strings.TrimSpace(req.Type))
	switch eventType {
	case trackingdomain.EventClick, trackingdomain.EventConversion, trackingdomain.EventSale:
	default:
		return nil, trackingdomain.ErrInvalidEventType
	}

	if req.AmountCents < 0 {
		return nil, trackingdomain.ErrInvalidAmount
	}

	allowed, err := s.limiter.AllowEvent(ctx, code)
	if err != nil {
		// Redis being down must not drop tracking traffic.
		s.log.Warn("rate limiter unavailable, failing open", zap.Error(err))
		allowed = true
	}
	if !allowed {
		eventsThrottled.Inc()
		return nil, trackingdomain.ErrRateLimited
	}

	link, err := s.repo.FindLinkByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, trackingdomain.ErrNotFound
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil && !req.OccurredAt.IsZero() {
		occurredAt = req.OccurredAt.UTC()
	}

	event := &trackingdomain.TrackingEvent{
		ID:             s.genID.Generate(),
		TenantID:       link.TenantID,
		TrackingLinkID: link.ID,
		AffiliateID:    link.AffiliateID,
		EventType:      eventType,
		AmountCents:    req.AmountCents,
		Metadata:       datatypes.JSONMap(req.Metadata),
		OccurredAt:     occurredAt,
		CreatedAt:      occurredAt,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertEvent(ctx, tx, event); err != nil {
			return err
		}
		return s.repo.IncrementCounters(ctx, tx, link.ID, eventType, req.AmountCents)
	})
	if err != nil {
		return nil, err
	}

	eventsIngested.WithLabelValues(string(eventType)).Inc()

	return &trackingdomain.EventResponse{
		ID:           event.ID.String(),
		TrackingCode: link.TrackingCode,
		EventType:    string(eventType),
		AmountCents:  event.AmountCents,
		OccurredAt:   event.OccurredAt,
	}, nil
}

func (s *Service) Metrics(ctx context.Context, trackingCode string) (*trackingdomain.MetricsResponse, error) {
	code := strings.TrimSpace(trackingCode)
	if code == "" {
		return nil, trackingdomain.ErrInvalidCode
	}

	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok {
		return nil, trackingdomain.ErrInvalidTenant
	}

	link, err := s.repo.FindLinkByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	// A guessed code must not expose another tenant's counters.
	if link == nil || link.TenantID != tenantID {
		return nil, trackingdomain.ErrNotFound
	}

	var conversionRate float64
	if link.TotalClicks > 0 {
		conversionRate = float64(link.TotalConversions) / float64(link.TotalClicks)
	}

	return &trackingdomain.MetricsResponse{
		TrackingCode:     link.TrackingCode,
		AffiliateID:      link.AffiliateID.String(),
		ProductID:        link.ProductID.String(),
		TotalClicks:      link.TotalClicks,
		TotalConversions: link.TotalConversions,
		TotalSalesCents:  link.TotalSales,
		ConversionRate:   conversionRate,
	}, nil
}

func (s *Service) ListForAffiliate(ctx context.Context, affiliateID string) ([]trackingdomain.TrackingLink, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, trackingdomain.ErrInvalidTenant
	}

	id, err := snowflake.ParseString(strings.TrimSpace(affiliateID))
	if err != nil {
		return nil, trackingdomain.ErrInvalidAffiliate
	}

	return s.repo.ListLinksByAffiliate(ctx, s.db, tenantID, id)
}
