package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/smallbiznis/affina/internal/commissiontier/domain"
	"github.com/smallbiznis/affina/internal/tenantctx"
	"github.com/smallbiznis/affina/pkg/db"
	"github.com/smallbiznis/affina/pkg/percent"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  tierdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  tierdomain.Repository
}

func New(p Params) tierdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("commissiontier.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req tierdomain.CreateRequest) (*tierdomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.TierName)
	if name == "" {
		return nil, tierdomain.ErrInvalidTierName
	}

	commissionPercent, err := percent.Normalize(req.CommissionPercent)
	if err != nil {
		return nil, tierdomain.ErrInvalidPercent
	}

	if req.MinSales < 0 {
		return nil, tierdomain.ErrInvalidMinSales
	}

	now := time.Now().UTC()
	entity := &tierdomain.CommissionTier{
		ID:                s.genID.Generate(),
		TenantID:          tenantID,
		TierName:          name,
		CommissionPercent: commissionPercent,
		MinSales:          req.MinSales,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tierdomain.ErrTierNameTaken
		}
		return nil, err
	}

	return s.toResponse(entity), nil
}

func (s *Service) List(ctx context.Context) ([]tierdomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}

	resp := make([]tierdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*tierdomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	tierID, err := parseID(id)
	if err != nil {
		return nil, tierdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID, tierID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, tierdomain.ErrNotFound
	}

	return s.toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, req tierdomain.UpdateRequest) (*tierdomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	tierID, err := parseID(req.ID)
	if err != nil {
		return nil, tierdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID, tierID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, tierdomain.ErrNotFound
	}

	if req.TierName != nil {
		name := strings.TrimSpace(*req.TierName)
		if name == "" {
			return nil, tierdomain.ErrInvalidTierName
		}
		entity.TierName = name
	}
	if req.CommissionPercent != nil {
		normalized, err := percent.Normalize(*req.CommissionPercent)
		if err != nil {
			return nil, tierdomain.ErrInvalidPercent
		}
		entity.CommissionPercent = normalized
	}
	if req.MinSales != nil {
		if *req.MinSales < 0 {
			return nil, tierdomain.ErrInvalidMinSales
		}
		entity.MinSales = *req.MinSales
	}

	entity.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tierdomain.ErrTierNameTaken
		}
		return nil, err
	}

	return s.toResponse(entity), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return err
	}

	tierID, err := parseID(id)
	if err != nil {
		return tierdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID, tierID)
	if err != nil {
		return err
	}
	if entity == nil {
		return tierdomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, tenantID, tierID)
}

func (s *Service) EnsureDefault(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID) (*tierdomain.CommissionTier, error) {
	if tx == nil {
		tx = s.db
	}

	tier, err := s.repo.Lowest(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}
	if tier != nil {
		return tier, nil
	}

	now := time.Now().UTC()
	seeded := &tierdomain.CommissionTier{
		ID:                s.genID.Generate(),
		TenantID:          tenantID,
		TierName:          tierdomain.DefaultTierName,
		CommissionPercent: tierdomain.DefaultTierPercent,
		MinSales:          0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, tx, seeded); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost the seed race; the winner's tier is authoritative.
			return s.repo.Lowest(ctx, tx, tenantID)
		}
		return nil, err
	}

	s.log.Info("seeded default commission tier", zap.String("tenant_id", tenantID.String()))
	return seeded, nil
}

func (s *Service) tenantIDFromContext(ctx context.Context) (snowflake.ID, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return 0, tierdomain.ErrInvalidTenant
	}
	return tenantID, nil
}

func (s *Service) toResponse(t *tierdomain.CommissionTier) *tierdomain.Response {
	return &tierdomain.Response{
		ID:                t.ID.String(),
		TenantID:          t.TenantID.String(),
		TierName:          t.TierName,
		CommissionPercent: t.CommissionPercent,
		MinSales:          t.MinSales,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
