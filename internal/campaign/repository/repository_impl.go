package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	campaigndomain "github.com/smallbiznis/affina/internal/campaign/domain"
	"github.com/smallbiznis/affina/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() campaigndomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, campaign *campaigndomain.Campaign) error {
	return db.WithContext(ctx).Create(campaign).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*campaigndomain.Campaign, error) {
	var campaign campaigndomain.Campaign
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, page pagination.Pagination) ([]campaigndomain.Campaign, error) {
	stmt := db.WithContext(ctx).
		Model(&campaigndomain.Campaign{}).
		Where("tenant_id = ?", tenantID)
	stmt, err := pagination.Apply(stmt, page)
	if err != nil {
		return nil, err
	}

	var items []campaigndomain.Campaign
	err = stmt.
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, campaign *campaigndomain.Campaign) error {
	return db.WithContext(ctx).
		Model(&campaigndomain.Campaign{}).
		Where("tenant_id = ? AND id = ?", campaign.TenantID, campaign.ID).
		Updates(map[string]any{
			"name":         campaign.Name,
			"status":       campaign.Status,
			"starts_at":    campaign.StartsAt,
			"ends_at":      campaign.EndsAt,
			"budget_cents": campaign.BudgetCents,
			"updated_at":   campaign.UpdatedAt,
		}).Error
}

func (r *repo) InsertParticipation(ctx context.Context, db *gorm.DB, participation *campaigndomain.CampaignParticipation) error {
	return db.WithContext(ctx).Create(participation).Error
}

func (r *repo) FindParticipation(ctx context.Context, db *gorm.DB, tenantID, campaignID, influencerID snowflake.ID) (*campaigndomain.CampaignParticipation, error) {
	var participation campaigndomain.CampaignParticipation
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND campaign_id = ? AND influencer_id = ?", tenantID, campaignID, influencerID).
		First(&participation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &participation, nil
}

func (r *repo) ListParticipants(ctx context.Context, db *gorm.DB, tenantID, campaignID snowflake.ID) ([]campaigndomain.CampaignParticipation, error) {
	var items []campaigndomain.CampaignParticipation
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND campaign_id = ?", tenantID, campaignID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
