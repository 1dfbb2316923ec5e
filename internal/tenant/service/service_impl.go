package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/smallbiznis/affina/internal/tenant/domain"
	"github.com/smallbiznis/affina/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  tenantdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  tenantdomain.Repository
}

func New(p Params) tenantdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tenant.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req tenantdomain.CreateRequest) (*tenantdomain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, tenantdomain.ErrInvalidName
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if slug == "" {
		return nil, tenantdomain.ErrInvalidSlug
	}

	now := time.Now().UTC()
	entity := &tenantdomain.Tenant{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tenantdomain.ErrSlugTaken
		}
		return nil, err
	}

	return s.toResponse(entity), nil
}

func (s *Service) Get(ctx context.Context, id string) (*tenantdomain.Response, error) {
	tenantID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, tenantdomain.ErrNotFound
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, tenantdomain.ErrNotFound
	}

	return s.toResponse(entity), nil
}

func (s *Service) Exists(ctx context.Context, id snowflake.ID) (bool, error) {
	entity, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return false, err
	}
	return entity != nil, nil
}

func (s *Service) toResponse(t *tenantdomain.Tenant) *tenantdomain.Response {
	return &tenantdomain.Response{
		ID:   t.ID.String(),
		Name: t.Name,
		Slug: t.Slug,
	}
}
