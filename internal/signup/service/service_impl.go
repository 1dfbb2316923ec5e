package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/smallbiznis/affina/internal/commissiontier/domain"
	signupdomain "github.com/smallbiznis/affina/internal/signup/domain"
	tenantdomain "github.com/smallbiznis/affina/internal/tenant/domain"
	"github.com/smallbiznis/affina/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	TenantRepo tenantdomain.Repository
	TierSvc    tierdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	tenantRepo tenantdomain.Repository
	tierSvc    tierdomain.Service
}

func New(p Params) signupdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("signup.service"),
		genID:      p.GenID,
		tenantRepo: p.TenantRepo,
		tierSvc:    p.TierSvc,
	}
}

func (s *Service) Signup(ctx context.Context, req signupdomain.SignupRequest) (*signupdomain.SignupResponse, error) {
	name := strings.TrimSpace(req.OrganizationName)
	if name == "" {
		return nil, signupdomain.ErrInvalidName
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if slug == "" || !slugPattern.MatchString(slug) {
		return nil, signupdomain.ErrInvalidSlug
	}

	address := strings.TrimSpace(strings.ToLower(req.Email))
	if address == "" || !strings.Contains(address, "@") {
		return nil, signupdomain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	tenant := &tenantdomain.Tenant{
		ID:         s.genID.Generate(),
		Name:       name,
		Slug:       slug,
		OwnerEmail: address,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var tierID snowflake.ID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.tenantRepo.Insert(ctx, tx, tenant); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return signupdomain.ErrSlugTaken
			}
			return err
		}

		tier, err := s.tierSvc.EnsureDefault(ctx, tx, tenant.ID)
		if err != nil {
			return err
		}
		tierID = tier.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tenant provisioned",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", tenant.Slug),
	)

	return &signupdomain.SignupResponse{
		TenantID:      tenant.ID.String(),
		Slug:          tenant.Slug,
		DefaultTierID: tierID.String(),
	}, nil
}
