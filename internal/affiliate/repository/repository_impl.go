package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	affiliatedomain "github.com/smallbiznis/affina/internal/affiliate/domain"
	"github.com/smallbiznis/affina/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() affiliatedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, affiliate *affiliatedomain.Affiliate) error {
	return db.WithContext(ctx).Create(affiliate).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*affiliatedomain.Affiliate, error) {
	var affiliate affiliatedomain.Affiliate
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&affiliate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *repo) FindByUser(ctx context.Context, db *gorm.DB, tenantID, userID snowflake.ID) (*affiliatedomain.Affiliate, error) {
	var affiliate affiliatedomain.Affiliate
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&affiliate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, page pagination.Pagination) ([]affiliatedomain.Affiliate, error) {
	stmt := db.WithContext(ctx).
		Model(&affiliatedomain.Affiliate{}).
		Where("tenant_id = ?", tenantID)
	stmt, err := pagination.Apply(stmt, page)
	if err != nil {
		return nil, err
	}

	var items []affiliatedomain.Affiliate
	err = stmt.
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateTier(ctx context.Context, db *gorm.DB, tenantID, affiliateID, tierID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&affiliatedomain.Affiliate{}).
		Where("tenant_id = ? AND id = ?", tenantID, affiliateID).
		Updates(map[string]any{
			"commission_tier_id": tierID,
			"updated_at":         time.Now().UTC(),
		}).Error
}

func (r *repo) InsertInvite(ctx context.Context, db *gorm.DB, invite *affiliatedomain.AffiliateInvite) error {
	return db.WithContext(ctx).Create(invite).Error
}

func (r *repo) FindInviteByToken(ctx context.Context, db *gorm.DB, token string) (*affiliatedomain.AffiliateInvite, error) {
	var invite affiliatedomain.AffiliateInvite
	err := db.WithContext(ctx).
		Where("token = ?", token).
		First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invite, nil
}

func (r *repo) MarkInviteAccepted(ctx context.Context, db *gorm.DB, inviteID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&affiliatedomain.AffiliateInvite{}).
		Where("id = ?", inviteID).
		Updates(map[string]any{
			"status":     affiliatedomain.InviteAccepted,
			"updated_at": time.Now().UTC(),
		}).Error
}
