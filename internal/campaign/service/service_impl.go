package service

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	campaigndomain "github.com/smallbiznis/affina/internal/campaign/domain"
	"github.com/smallbiznis/affina/internal/tenantctx"
	"github.com/smallbiznis/affina/pkg/db"
	"github.com/smallbiznis/affina/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const promoCodeLength = 10

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  campaigndomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  campaigndomain.Repository
}

func New(p Params) campaigndomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("campaign.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req campaigndomain.CreateRequest) (*campaigndomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, campaigndomain.ErrInvalidName
	}

	status := campaigndomain.StatusDraft
	if req.Status != "" {
		status = campaigndomain.CampaignStatus(req.Status)
		switch status {
		case campaigndomain.StatusDraft, campaigndomain.StatusActive, campaigndomain.StatusEnded:
		default:
			return nil, campaigndomain.ErrInvalidStatus
		}
	}

	if req.StartsAt.IsZero() {
		return nil, campaigndomain.ErrInvalidDates
	}
	if req.EndsAt != nil && !req.EndsAt.After(req.StartsAt) {
		return nil, campaigndomain.ErrInvalidDates
	}

	if req.BudgetCents < 0 {
		return nil, campaigndomain.ErrInvalidBudget
	}

	now := time.Now().UTC()
	campaign := &campaigndomain.Campaign{
		ID:          s.genID.Generate(),
		TenantID:    tenantID,
		Name:        name,
		Status:      status,
		StartsAt:    req.StartsAt.UTC(),
		BudgetCents: req.BudgetCents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.EndsAt != nil {
		endsAt := req.EndsAt.UTC()
		campaign.EndsAt = &endsAt
	}

	if err := s.repo.Insert(ctx, s.db, campaign); err != nil {
		return nil, err
	}

	return s.toResponse(campaign), nil
}

func (s *Service) Get(ctx context.Context, id string) (*campaigndomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	campaignID, err := parseID(id)
	if err != nil {
		return nil, campaigndomain.ErrInvalidID
	}

	campaign, err := s.repo.FindByID(ctx, s.db, tenantID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, campaigndomain.ErrNotFound
	}

	return s.toResponse(campaign), nil
}

func (s *Service) List(ctx context.Context, req campaigndomain.ListRequest) (*campaigndomain.ListResponse, error) {
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

	items, pageInfo := pagination.Trim(items, page.Limit(), func(item campaigndomain.Campaign) pagination.Cursor {
		return pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})

	resp := &campaigndomain.ListResponse{
		Campaigns: make([]campaigndomain.Response, 0, len(items)),
		PageInfo:  pageInfo,
	}
	for i := range items {
		resp.Campaigns = append(resp.Campaigns, *s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Join(ctx context.Context, req campaigndomain.JoinRequest) (*campaigndomain.JoinResponse, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	campaignID, err := parseID(req.CampaignID)
	if err != nil {
		return nil, campaigndomain.ErrInvalidID
	}
	influencerID, err := parseID(req.InfluencerID)
	if err != nil {
		return nil, campaigndomain.ErrInvalidInfluencer
	}

	campaign, err := s.repo.FindByID(ctx, s.db, tenantID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, campaigndomain.ErrNotFound
	}
	if campaign.Status != campaigndomain.StatusActive {
		return nil, campaigndomain.ErrCampaignInactive
	}

	promoCode := PromoCode(campaignID, influencerID)
	rawCodes, err := json.Marshal([]string{promoCode})
	if err != nil {
		return nil, err
	}

	participation := &campaigndomain.CampaignParticipation{
		ID:           s.genID.Generate(),
		TenantID:     tenantID,
		CampaignID:   campaignID,
		InfluencerID: influencerID,
		PromoCodes:   datatypes.JSON(rawCodes),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.InsertParticipation(ctx, s.db, participation); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, campaigndomain.ErrAlreadyJoined
		}
		return nil, err
	}

	s.log.Info("influencer joined campaign",
		zap.String("tenant_id", tenantID.String()),
		zap.String("campaign_id", campaignID.String()),
		zap.String("influencer_id", influencerID.String()),
	)

	return &campaigndomain.JoinResponse{
		ParticipationID: participation.ID.String(),
		CampaignID:      campaignID.String(),
		InfluencerID:    influencerID.String(),
		PromoCodes:      []string{promoCode},
	}, nil
}

// PromoCode derives a stable code for a campaign/influencer pair. The same
// pair always yields the same code.
func PromoCode(campaignID, influencerID snowflake.ID) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", campaignID, influencerID)))
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:])
	return strings.ToUpper(encoded[:promoCodeLength])
}

func (s *Service) tenantIDFromContext(ctx context.Context) (snowflake.ID, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return 0, campaigndomain.ErrInvalidTenant
	}
	return tenantID, nil
}

func (s *Service) toResponse(c *campaigndomain.Campaign) *campaigndomain.Response {
	return &campaigndomain.Response{
		ID:          c.ID.String(),
		TenantID:    c.TenantID.String(),
		Name:        c.Name,
		Status:      string(c.Status),
		StartsAt:    c.StartsAt,
		EndsAt:      c.EndsAt,
		BudgetCents: c.BudgetCents,
		CreatedAt:   c.CreatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
