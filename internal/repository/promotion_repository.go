package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"promotion-campaigns/internal/models"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateCampaign inserts a campaign together with its first comment.
// The open-campaign check and the insert run in one transaction, and the unique
// index on open_subject_key rejects a concurrent duplicate that slips past the check.
func (r *Repository) CreateCampaign(
	ctx context.Context,
	campaign *models.PromotionCampaign,
	initialComment *models.PromotionComment,
) error {
	key := models.OpenCampaignKey(campaign.GuildID, campaign.SubjectUserID)
	campaign.IsClosed = false
	campaign.Outcome = models.CampaignOutcomePending
	campaign.OpenSubjectKey = &key
	campaign.Comments = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		err := tx.Model(&models.PromotionCampaign{}).
			Where("guild_id = ? AND subject_user_id = ? AND is_closed = ?",
				campaign.GuildID, campaign.SubjectUserID, false).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%w: user %d already has an open campaign", models.ErrConflict, campaign.SubjectUserID)
		}

		if err := tx.Create(campaign).Error; err != nil {
			return err
		}

		initialComment.CampaignID = campaign.ID
		return tx.Create(initialComment).Error
	})

	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: user %d already has an open campaign", models.ErrConflict, campaign.SubjectUserID)
	}
	return err
}

// AppendComment adds a comment to an open campaign
func (r *Repository) AppendComment(ctx context.Context, comment *models.PromotionComment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Touch the campaign row so that a concurrent close waits for this insert
		res := tx.Model(&models.PromotionCampaign{}).
			Where("id = ? AND is_closed = ?", comment.CampaignID, false).
			Update("outcome", gorm.Expr("outcome"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return campaignStateError(tx, comment.CampaignID)
		}

		return tx.Create(comment).Error
	})
}

// SetOutcome closes a pending campaign as accepted or rejected and returns it
func (r *Repository) SetOutcome(
	ctx context.Context,
	campaignID uint,
	outcome models.CampaignOutcome,
	closedAt time.Time,
) (*models.PromotionCampaign, error) {
	if outcome != models.CampaignOutcomeAccepted && outcome != models.CampaignOutcomeRejected {
		return nil, fmt.Errorf("%w: outcome %q cannot close a campaign", models.ErrValidation, outcome)
	}

	var campaign models.PromotionCampaign
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PromotionCampaign{}).
			Where("id = ? AND is_closed = ?", campaignID, false).
			Updates(map[string]interface{}{
				"is_closed":        true,
				"outcome":          outcome,
				"closed_at":        closedAt,
				"open_subject_key": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return campaignStateError(tx, campaignID)
		}

		return tx.First(&campaign, campaignID).Error
	})
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetCampaign retrieves a campaign with its comments, oldest comment first
func (r *Repository) GetCampaign(ctx context.Context, campaignID uint) (*models.PromotionCampaign, error) {
	var campaign models.PromotionCampaign
	err := r.db.WithContext(ctx).
		Preload("Comments", orderCommentsByID).
		First(&campaign, campaignID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: campaign %d", models.ErrNotFound, campaignID)
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// SearchCampaigns returns the campaigns of a guild in insertion order
func (r *Repository) SearchCampaigns(
	ctx context.Context,
	criteria models.CampaignSearchCriteria,
) ([]*models.PromotionCampaign, error) {
	query := r.db.WithContext(ctx).
		Preload("Comments", orderCommentsByID).
		Where("guild_id = ?", criteria.GuildID)

	if criteria.IsClosed != nil {
		query = query.Where("is_closed = ?", *criteria.IsClosed)
	}
	if criteria.SubjectUserID != nil {
		query = query.Where("subject_user_id = ?", *criteria.SubjectUserID)
	}

	var campaigns []*models.PromotionCampaign
	if err := query.Order("id ASC").Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

func orderCommentsByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// campaignStateError explains why a conditional update on an open campaign matched nothing
func campaignStateError(tx *gorm.DB, campaignID uint) error {
	var count int64
	if err := tx.Model(&models.PromotionCampaign{}).Where("id = ?", campaignID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: campaign %d", models.ErrNotFound, campaignID)
	}
	return fmt.Errorf("%w: campaign %d is closed", models.ErrInvalidState, campaignID)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
