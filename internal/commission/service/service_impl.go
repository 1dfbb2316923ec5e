package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	affiliatedomain "github.com/smallbiznis/affina/internal/affiliate/domain"
	commissiondomain "github.com/smallbiznis/affina/internal/commission/domain"
	tierdomain "github.com/smallbiznis/affina/internal/commissiontier/domain"
	productdomain "github.com/smallbiznis/affina/internal/product/domain"
	"github.com/smallbiznis/affina/internal/tenantctx"
	"github.com/smallbiznis/affina/pkg/percent"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          commissiondomain.Repository
	TierSvc       tierdomain.Service
	TierRepo      tierdomain.Repository
	ProductRepo   productdomain.Repository
	AffiliateRepo affiliatedomain.Repository
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          commissiondomain.Repository
	tierSvc       tierdomain.Service
	tierRepo      tierdomain.Repository
	productRepo   productdomain.Repository
	affiliateRepo affiliatedomain.Repository
}

func New(p Params) commissiondomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("commission.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		tierSvc:       p.TierSvc,
		tierRepo:      p.TierRepo,
		productRepo:   p.ProductRepo,
		affiliateRepo: p.AffiliateRepo,
	}
}

func (s *Service) AssignDefault(ctx context.Context, tx *gorm.DB, tenantID, productID snowflake.ID, useProductRate bool) (*commissiondomain.AffiliateProductCommission, error) {
	if tx == nil {
		tx = s.db
	}

	product, err := s.productRepo.FindByID(ctx, tx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, commissiondomain.ErrInvalidProduct
	}

	tier, err := s.tierSvc.EnsureDefault(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}

	productRate, err := percent.Parse(product.CommissionPercent)
	if err != nil {
		productRate = 0
	}
	productCommission := percent.Format(productRate)

	final := tier.CommissionPercent
	source := commissiondomain.SourceTier
	if useProductRate {
		final = productCommission
		source = commissiondomain.SourceProduct
	}

	now := time.Now().UTC()
	row := &commissiondomain.AffiliateProductCommission{
		ID:                s.genID.Generate(),
		TenantID:          tenantID,
		ProductID:         productID,
		CommissionTierID:  tier.ID,
		CommissionPercent: tier.CommissionPercent,
		ProductCommission: productCommission,
		FinalCommission:   final,
		RateSource:        source,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, tx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) BindAffiliate(ctx context.Context, tx *gorm.DB, tenantID, productID, affiliateID, trackingLinkID snowflake.ID) (*commissiondomain.AffiliateProductCommission, error) {
	if tx == nil {
		tx = s.db
	}

	existing, err := s.repo.FindByAffiliateProduct(ctx, tx, tenantID, affiliateID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Already bound; re-acceptance must not produce a second row.
		return existing, nil
	}

	placeholder, err := s.repo.FindPlaceholder(ctx, tx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if placeholder != nil {
		placeholder.AffiliateID = &affiliateID
		placeholder.TrackingLinkID = &trackingLinkID
		placeholder.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, placeholder); err != nil {
			return nil, err
		}
		return placeholder, nil
	}

	// No placeholder: the pair was created out of band. Build a fresh row
	// from the tenant's lowest tier; a tenant with no tier at all is in an
	// invalid state and must not be silently defaulted.
	tier, err := s.tierRepo.Lowest(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, commissiondomain.ErrNoTierConfigured
	}

	product, err := s.productRepo.FindByID(ctx, tx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, commissiondomain.ErrInvalidProduct
	}

	productRate, err := percent.Parse(product.CommissionPercent)
	if err != nil {
		productRate = 0
	}
	productCommission := percent.Format(productRate)

	now := time.Now().UTC()
	row := &commissiondomain.AffiliateProductCommission{
		ID:                s.genID.Generate(),
		TenantID:          tenantID,
		AffiliateID:       &affiliateID,
		ProductID:         productID,
		TrackingLinkID:    &trackingLinkID,
		CommissionTierID:  tier.ID,
		CommissionPercent: tier.CommissionPercent,
		ProductCommission: productCommission,
		FinalCommission:   productCommission,
		RateSource:        commissiondomain.SourceProduct,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, tx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) ToggleRateSource(ctx context.Context, req commissiondomain.ToggleRequest) (*commissiondomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	affiliateID, err := parseID(req.AffiliateID)
	if err != nil {
		return nil, commissiondomain.ErrInvalidAffiliate
	}
	productID, err := parseID(req.ProductID)
	if err != nil {
		return nil, commissiondomain.ErrInvalidProduct
	}

	row, err := s.repo.FindByAffiliateProduct(ctx, s.db, tenantID, affiliateID, productID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, commissiondomain.ErrNotFound
	}

	product, err := s.productRepo.FindByID(ctx, s.db, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, commissiondomain.ErrNotFound
	}

	tier, err := s.tierRepo.FindByID(ctx, s.db, tenantID, row.CommissionTierID)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, commissiondomain.ErrNotFound
	}

	if req.UseProductCommission {
		productRate, err := percent.Parse(product.CommissionPercent)
		if err != nil {
			productRate = 0
		}
		row.FinalCommission = percent.Format(productRate)
		row.RateSource = commissiondomain.SourceProduct
	} else {
		row.FinalCommission = tier.CommissionPercent
		row.RateSource = commissiondomain.SourceTier
	}

	row.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateRateSelection(ctx, s.db, row); err != nil {
		return nil, err
	}

	return s.toResponse(row), nil
}

func (s *Service) ReassignTier(ctx context.Context, req commissiondomain.ReassignTierRequest) ([]commissiondomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	affiliateID, err := parseID(req.AffiliateID)
	if err != nil {
		return nil, commissiondomain.ErrInvalidAffiliate
	}
	newTierID, err := parseID(req.NewTierID)
	if err != nil {
		return nil, commissiondomain.ErrInvalidTier
	}

	var updated []commissiondomain.Response

	// The tier pointer and the per-row fan-out move together or not at
	// all; a crash mid-loop must not leave the affiliate half on each
	// tier.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		tier, err := s.tierRepo.FindByID(ctx, tx, tenantID, newTierID)
		if err != nil {
			return err
		}
		if tier == nil {
			return commissiondomain.ErrNotFound
		}

		affiliate, err := s.affiliateRepo.FindByID(ctx, tx, tenantID, affiliateID)
		if err != nil {
			return err
		}
		if affiliate == nil {
			return commissiondomain.ErrNotFound
		}

		if err := s.affiliateRepo.UpdateTier(ctx, tx, tenantID, affiliateID, newTierID); err != nil {
			return err
		}

		rows, err := s.repo.ListByAffiliate(ctx, tx, tenantID, affiliateID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for i := range rows {
			row := &rows[i]
			if row.RateSource == commissiondomain.SourceProduct {
				// Pinned to the product's own rate; the tier move
				// does not touch it.
				updated = append(updated, *s.toResponse(row))
				continue
			}

			row.CommissionTierID = tier.ID
			row.CommissionPercent = tier.CommissionPercent
			row.FinalCommission = tier.CommissionPercent
			row.UpdatedAt = now
			if err := s.repo.Update(ctx, tx, row); err != nil {
				return err
			}
			updated = append(updated, *s.toResponse(row))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reassigned affiliate tier",
		zap.String("tenant_id", tenantID.String()),
		zap.String("affiliate_id", affiliateID.String()),
		zap.String("new_tier_id", newTierID.String()),
		zap.Int("ledger_rows", len(updated)),
	)
	return updated, nil
}

func (s *Service) ListForAffiliate(ctx context.Context, affiliateID string) ([]commissiondomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	id, err := parseID(affiliateID)
	if err != nil {
		return nil, commissiondomain.ErrInvalidAffiliate
	}

	rows, err := s.repo.ListByAffiliate(ctx, s.db, tenantID, id)
	if err != nil {
		return nil, err
	}

	resp := make([]commissiondomain.Response, 0, len(rows))
	for i := range rows {
		resp = append(resp, *s.toResponse(&rows[i]))
	}
	return resp, nil
}

func (s *Service) tenantIDFromContext(ctx context.Context) (snowflake.ID, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return 0, commissiondomain.ErrInvalidTenant
	}
	return tenantID, nil
}

func (s *Service) toResponse(row *commissiondomain.AffiliateProductCommission) *commissiondomain.Response {
	resp := &commissiondomain.Response{
		ID:                row.ID.String(),
		TenantID:          row.TenantID.String(),
		ProductID:         row.ProductID.String(),
		CommissionTierID:  row.CommissionTierID.String(),
		CommissionPercent: row.CommissionPercent,
		ProductCommission: row.ProductCommission,
		FinalCommission:   row.FinalCommission,
		RateSource:        string(row.RateSource),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if row.AffiliateID != nil {
		resp.AffiliateID = row.AffiliateID.String()
	}
	if row.TrackingLinkID != nil {
		resp.TrackingLinkID = row.TrackingLinkID.String()
	}
	return resp
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
