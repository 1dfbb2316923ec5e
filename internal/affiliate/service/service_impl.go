package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	affiliatedomain "github.com/smallbiznis/affina/internal/affiliate/domain"
	commissiondomain "github.com/smallbiznis/affina/internal/commission/domain"
	tierdomain "github.com/smallbiznis/affina/internal/commissiontier/domain"
	"github.com/smallbiznis/affina/internal/providers/email"
	"github.com/smallbiznis/affina/internal/ratelimit"
	"github.com/smallbiznis/affina/internal/tenantctx"
	trackingdomain "github.com/smallbiznis/affina/internal/tracking/domain"
	"github.com/smallbiznis/affina/pkg/db"
	"github.com/smallbiznis/affina/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const inviteTTL = 7 * 24 * time.Hour

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          affiliatedomain.Repository
	CommissionSvc commissiondomain.Service
	TierSvc       tierdomain.Service
	TrackingSvc   trackingdomain.Service
	Email         email.Provider
	Limiter       *ratelimit.TrackingIngestLimiter `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          affiliatedomain.Repository
	commissionSvc commissiondomain.Service
	tierSvc       tierdomain.Service
	trackingSvc   trackingdomain.Service
	email         email.Provider
	limiter       *ratelimit.TrackingIngestLimiter
}

func New(p Params) affiliatedomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("affiliate.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		commissionSvc: p.CommissionSvc,
		tierSvc:       p.TierSvc,
		trackingSvc:   p.TrackingSvc,
		email:         p.Email,
		limiter:       p.Limiter,
	}
}

func (s *Service) Invite(ctx context.Context, req affiliatedomain.InviteRequest) (*affiliatedomain.InviteResponse, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	address := strings.TrimSpace(strings.ToLower(req.Email))
	if address == "" || !strings.Contains(address, "@") {
		return nil, affiliatedomain.ErrInvalidEmail
	}

	if len(req.ProductIDs) == 0 {
		return nil, affiliatedomain.ErrInvalidProducts
	}
	productIDs := make([]snowflake.ID, 0, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			return nil, affiliatedomain.ErrInvalidProducts
		}
		productIDs = append(productIDs, id)
	}

	rawIDs, err := json.Marshal(req.ProductIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	invite := &affiliatedomain.AffiliateInvite{
		ID:         s.genID.Generate(),
		TenantID:   tenantID,
		Email:      address,
		Token:      uuid.NewString(),
		ProductIDs: datatypes.JSON(rawIDs),
		Status:     affiliatedomain.InvitePending,
		ExpiresAt:  now.Add(inviteTTL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// The invite and its placeholder ledger rows land together or not at
	// all.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertInvite(ctx, tx, invite); err != nil {
			return err
		}
		for _, productID := range productIDs {
			if _, err := s.commissionSvc.AssignDefault(ctx, tx, tenantID, productID, req.UseProductCommission); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	subject := "You're invited to become an affiliate"
	body := fmt.Sprintf("<p>You have been invited to promote %d product(s).</p><p>Your invite token: <strong>%s</strong></p>", len(productIDs), invite.Token)
	if err := s.email.Send(ctx, []string{invite.Email}, subject, body); err != nil {
		// The invite is already committed; delivery failure is not fatal.
		s.log.Warn("invite email delivery failed",
			zap.String("invite_id", invite.ID.String()),
			zap.Error(err),
		)
	}

	return &affiliatedomain.InviteResponse{
		ID:        invite.ID.String(),
		Email:     invite.Email,
		Token:     invite.Token,
		Status:    string(invite.Status),
		ExpiresAt: invite.ExpiresAt,
	}, nil
}

func (s *Service) Accept(ctx context.Context, req affiliatedomain.AcceptRequest) (*affiliatedomain.AcceptResponse, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, affiliatedomain.ErrInvalidToken
	}

	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, affiliatedomain.ErrInvalidUser
	}

	release, ok, err := s.limiter.AcquireAcceptLock(ctx, token)
	if err != nil {
		// The DB unique constraints still guard duplicate acceptance.
		s.log.Warn("accept lock unavailable, relying on db constraints", zap.Error(err))
	} else if !ok {
		return nil, affiliatedomain.ErrAcceptInProgress
	}
	defer release()

	invite, err := s.repo.FindInviteByToken(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	if invite == nil || invite.TenantID != tenantID {
		return nil, affiliatedomain.ErrNotFound
	}
	if invite.Status == affiliatedomain.InviteAccepted {
		return nil, affiliatedomain.ErrInviteAccepted
	}
	if time.Now().UTC().After(invite.ExpiresAt) {
		return nil, affiliatedomain.ErrInviteExpired
	}

	var rawIDs []string
	if err := json.Unmarshal(invite.ProductIDs, &rawIDs); err != nil {
		return nil, err
	}
	productIDs := make([]snowflake.ID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, affiliatedomain.ErrInvalidProducts
		}
		productIDs = append(productIDs, id)
	}

	address := strings.TrimSpace(strings.ToLower(req.Email))
	if address == "" {
		address = invite.Email
	}

	var (
		affiliateID   snowflake.ID
		trackingCodes []string
	)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		affiliate, err := s.repo.FindByUser(ctx, tx, tenantID, userID)
		if err != nil {
			return err
		}
		if affiliate == nil {
			tier, err := s.tierSvc.EnsureDefault(ctx, tx, tenantID)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			affiliate = &affiliatedomain.Affiliate{
				ID:               s.genID.Generate(),
				TenantID:         tenantID,
				UserID:           userID,
				Email:            address,
				Status:           affiliatedomain.StatusActive,
				CommissionTierID: tier.ID,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := s.repo.Insert(ctx, tx, affiliate); err != nil {
				if db.IsDuplicateKeyErr(err) {
					affiliate, err = s.repo.FindByUser(ctx, tx, tenantID, userID)
					if err != nil {
						return err
					}
					if affiliate == nil {
						return affiliatedomain.ErrNotFound
					}
				} else {
					return err
				}
			}
		}
		affiliateID = affiliate.ID

		for _, productID := range productIDs {
			link, err := s.trackingSvc.EnsureLink(ctx, tx, tenantID, affiliate.ID, productID)
			if err != nil {
				return err
			}
			if _, err := s.commissionSvc.BindAffiliate(ctx, tx, tenantID, productID, affiliate.ID, link.ID); err != nil {
				return err
			}
			trackingCodes = append(trackingCodes, link.TrackingCode)
		}

		return s.repo.MarkInviteAccepted(ctx, tx, invite.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("affiliate invite accepted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("affiliate_id", affiliateID.String()),
		zap.Int("products", len(productIDs)),
	)

	return &affiliatedomain.AcceptResponse{
		AffiliateID:   affiliateID.String(),
		TrackingCodes: trackingCodes,
	}, nil
}

func (s *Service) UpdateTier(ctx context.Context, affiliateID, newTierID string) error {
	_, err := s.commissionSvc.ReassignTier(ctx, commissiondomain.ReassignTierRequest{
		AffiliateID: affiliateID,
		NewTierID:   newTierID,
	})
	return err
}

func (s *Service) Get(ctx context.Context, id string) (*affiliatedomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	affiliateID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, affiliatedomain.ErrInvalidID
	}

	affiliate, err := s.repo.FindByID(ctx, s.db, tenantID, affiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, affiliatedomain.ErrNotFound
	}

	return s.toResponse(affiliate), nil
}

func (s *Service) List(ctx context.Context, req affiliatedomain.ListRequest) (*affiliatedomain.ListResponse, error) {
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

	items, pageInfo := pagination.Trim(items, page.Limit(), func(item affiliatedomain.Affiliate) pagination.Cursor {
		return pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})

	resp := &affiliatedomain.ListResponse{
		Affiliates: make([]affiliatedomain.Response, 0, len(items)),
		PageInfo:   pageInfo,
	}
	for i := range items {
		resp.Affiliates = append(resp.Affiliates, *s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) tenantIDFromContext(ctx context.Context) (snowflake.ID, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return 0, affiliatedomain.ErrInvalidTenant
	}
	return tenantID, nil
}

func (s *Service) toResponse(a *affiliatedomain.Affiliate) *affiliatedomain.Response {
	return &affiliatedomain.Response{
		ID:               a.ID.String(),
		TenantID:         a.TenantID.String(),
		UserID:           a.UserID.String(),
		Email:            a.Email,
		Status:           string(a.Status),
		CommissionTierID: a.CommissionTierID.String(),
		CreatedAt:        a.CreatedAt,
	}
}
