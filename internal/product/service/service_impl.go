package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	productdomain "github.com/smallbiznis/affina/internal/product/domain"
	"github.com/smallbiznis/affina/internal/tenantctx"
	"github.com/smallbiznis/affina/pkg/db/pagination"
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
	Repo  productdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  productdomain.Repository
}

func New(p Params) productdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req productdomain.CreateRequest) (*productdomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, productdomain.ErrInvalidName
	}

	sku := strings.TrimSpace(req.SKUCode)
	if sku == "" {
		return nil, productdomain.ErrInvalidSKU
	}

	if req.PriceCents < 0 {
		return nil, productdomain.ErrInvalidPrice
	}

	commissionPercent := ""
	if strings.TrimSpace(req.CommissionPercent) != "" {
		commissionPercent, err = percent.Normalize(req.CommissionPercent)
		if err != nil {
			return nil, productdomain.ErrInvalidPercent
		}
	}

	now := time.Now().UTC()
	entity := &productdomain.Product{
		ID:                s.genID.Generate(),
		TenantID:          tenantID,
		Name:              name,
		SKUCode:           sku,
		PriceCents:        req.PriceCents,
		CommissionPercent: commissionPercent,
		Status:            productdomain.StatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	return s.toResponse(entity), nil
}

func (s *Service) List(ctx context.Context, req productdomain.ListRequest) (*productdomain.ListResponse, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	page := pagination.Pagination{
		PageToken: strings.TrimSpace(req.PageToken),
		PageSize:  req.PageSize,
	}
	items, err := s.repo.List(ctx, s.db, tenantID, page)
	if err != nil {
		return nil, err
	}

	items, pageInfo := pagination.Trim(items, page.Limit(), func(item productdomain.Product) pagination.Cursor {
		return pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})

	resp := &productdomain.ListResponse{
		Products: make([]productdomain.Response, 0, len(items)),
		PageInfo: pageInfo,
	}
	for i := range items {
		resp.Products = append(resp.Products, *s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*productdomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	productID, err := parseID(id)
	if err != nil {
		return nil, productdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, productdomain.ErrNotFound
	}

	return s.toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, req productdomain.UpdateRequest) (*productdomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	productID, err := parseID(req.ID)
	if err != nil {
		return nil, productdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, productdomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, productdomain.ErrInvalidName
		}
		entity.Name = name
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return nil, productdomain.ErrInvalidPrice
		}
		entity.PriceCents = *req.PriceCents
	}
	if req.CommissionPercent != nil {
		value := strings.TrimSpace(*req.CommissionPercent)
		if value == "" {
			entity.CommissionPercent = ""
		} else {
			normalized, err := percent.Normalize(value)
			if err != nil {
				return nil, productdomain.ErrInvalidPercent
			}
			entity.CommissionPercent = normalized
		}
	}
	if req.Status != nil {
		switch productdomain.ProductStatus(*req.Status) {
		case productdomain.StatusActive, productdomain.StatusInactive:
			entity.Status = productdomain.ProductStatus(*req.Status)
		default:
			return nil, productdomain.ErrInvalidStatus
		}
	}

	entity.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, entity); err != nil {
		return nil, err
	}

	return s.toResponse(entity), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return err
	}

	productID, err := parseID(id)
	if err != nil {
		return productdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID, productID)
	if err != nil {
		return err
	}
	if entity == nil {
		return productdomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, tenantID, productID)
}

func (s *Service) tenantIDFromContext(ctx context.Context) (snowflake.ID, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return 0, productdomain.ErrInvalidTenant
	}
	return tenantID, nil
}

func (s *Service) toResponse(p *productdomain.Product) *productdomain.Response {
	return &productdomain.Response{
		ID:                p.ID.String(),
		TenantID:          p.TenantID.String(),
		Name:              p.Name,
		SKUCode:           p.SKUCode,
		PriceCents:        p.PriceCents,
		CommissionPercent: p.CommissionPercent,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
