package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ruledomain "github.com/smallbiznis/affina/internal/commissionrule/domain"
	"github.com/smallbiznis/affina/internal/tenantctx"
	"github.com/smallbiznis/affina/pkg/percent"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  ruledomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  ruledomain.Repository
}

func New(p Params) ruledomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("commissionrule.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req ruledomain.CreateRequest) (*ruledomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ruledomain.ErrInvalidName
	}

	ruleType := ruledomain.RuleType(strings.TrimSpace(req.Type))
	switch ruleType {
	case ruledomain.TypeBonus, ruledomain.TypeMultiplier, ruledomain.TypePercentage:
	default:
		return nil, ruledomain.ErrInvalidType
	}

	valueType := ruledomain.ValueType(strings.TrimSpace(req.ValueType))
	switch valueType {
	case ruledomain.ValueFixed, ruledomain.ValuePercentage, ruledomain.ValueMultiplier:
	default:
		return nil, ruledomain.ErrInvalidValueType
	}

	value, err := s.normalizeValue(req.Value, valueType)
	if err != nil {
		return nil, err
	}

	startDate := req.StartDate
	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}
	if req.EndDate != nil && !req.EndDate.After(startDate) {
		return nil, ruledomain.ErrInvalidDateRange
	}

	now := time.Now().UTC()
	entity := &ruledomain.CommissionRule{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		Name:      name,
		Type:      ruleType,
		Condition: strings.TrimSpace(req.Condition),
		Value:     value,
		ValueType: valueType,
		Status:    ruledomain.StatusActive,
		Priority:  req.Priority,
		StartDate: startDate,
		EndDate:   req.EndDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Metadata != nil {
		entity.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	return s.toResponse(entity), nil
}

func (s *Service) List(ctx context.Context) ([]ruledomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}

	resp := make([]ruledomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*ruledomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	ruleID, err := parseID(id)
	if err != nil {
		return nil, ruledomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID, ruleID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, ruledomain.ErrNotFound
	}

	return s.toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, req ruledomain.UpdateRequest) (*ruledomain.Response, error) {
	tenantID, err := s.tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	ruleID, err := parseID(req.ID)
	if err != nil {
		return nil, ruledomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID, ruleID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, ruledomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ruledomain.ErrInvalidName
		}
		entity.Name = name
	}
	if req.Condition != nil {
		entity.Condition = strings.TrimSpace(*req.Condition)
	}
	if req.Value != nil {
		value, err := s.normalizeValue(*req.Value, entity.ValueType)
		if err != nil {
			return nil, err
		}
		entity.Value = value
	}
	if req.Status != nil {
		switch ruledomain.RuleStatus(*req.Status) {
		case ruledomain.StatusActive, ruledomain.StatusInactive:
			entity.Status = ruledomain.RuleStatus(*req.Status)
		default:
			return nil, ruledomain.ErrInvalidStatus
		}
	}
	if req.Priority != nil {
		entity.Priority = *req.Priority
	}
	if req.EndDate != nil {
		if !req.EndDate.After(entity.StartDate) {
			return nil, ruledomain.ErrInvalidDateRange
		}
		entity.EndDate = req.EndDate
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

	ruleID, err := parseID(id)
	if err != nil {
		return ruledomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, tenantID, ruleID)
	if err != nil {
		return err
	}
	if entity == nil {
		return ruledomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, tenantID, ruleID)
}

// normalizeValue validates the rule value against its value type.
// Percentage values stay within [0, 100]; fixed and multiplier values must
// only parse and be non-negative.
func (s *Service) normalizeValue(raw string, valueType ruledomain.ValueType) (string, error) {
	if valueType == ruledomain.ValuePercentage {
		normalized, err := percent.Normalize(raw)
		if err != nil {
			return "", ruledomain.ErrInvalidValue
		}
		return normalized, nil
	}

	parsed, err := percent.Parse(raw)
	if err != nil || parsed < 0 {
		return "", ruledomain.ErrInvalidValue
	}
	return percent.Format(parsed), nil
}

func (s *Service) tenantIDFromContext(ctx context.Context) (snowflake.ID, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return 0, ruledomain.ErrInvalidTenant
	}
	return tenantID, nil
}

func (s *Service) toResponse(r *ruledomain.CommissionRule) *ruledomain.Response {
	return &ruledomain.Response{
		ID:        r.ID.String(),
		TenantID:  r.TenantID.String(),
		Name:      r.Name,
		Type:      string(r.Type),
		Condition: r.Condition,
		Value:     r.Value,
		ValueType: string(r.ValueType),
		Status:    string(r.Status),
		Priority:  r.Priority,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
