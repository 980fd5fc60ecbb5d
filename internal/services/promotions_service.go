package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"promotion-campaigns/internal/models"
)

// DefaultApprovalMessage is used when an approval is cast without a comment
const DefaultApprovalMessage = "I approve of this nomination."

// ConfirmFunc decides whether a proposed campaign should be created
type ConfirmFunc func(ctx context.Context, proposal models.ProposedPromotionCampaign) bool

// CampaignStore persists campaigns and their comments
type CampaignStore interface {
	CreateCampaign(ctx context.Context, campaign *models.PromotionCampaign, initialComment *models.PromotionComment) error
	AppendComment(ctx context.Context, comment *models.PromotionComment) error
	SetOutcome(ctx context.Context, campaignID uint, outcome models.CampaignOutcome, closedAt time.Time) (*models.PromotionCampaign, error)
	GetCampaign(ctx context.Context, campaignID uint) (*models.PromotionCampaign, error)
	SearchCampaigns(ctx context.Context, criteria models.CampaignSearchCriteria) ([]*models.PromotionCampaign, error)
}

// Directory resolves names for display
type Directory interface {
	DisplayName(ctx context.Context, guildID, userID uint64) string
	RoleName(ctx context.Context, guildID, roleID uint64) string
}

// RankAssigner grants the target rank of an accepted campaign
type RankAssigner interface {
	AssignRank(ctx context.Context, campaign *models.PromotionCampaign) error
}

// NominationResult is the outcome of CreateCampaign
type NominationResult struct {
	Confirmed bool
	Campaign  *models.PromotionCampaign
}

type PromotionsService struct {
	store     CampaignStore
	directory Directory
	ranks     RankAssigner
	now       func() time.Time
}

func NewPromotionsService(store CampaignStore, directory Directory, ranks RankAssigner) *PromotionsService {
	return &PromotionsService{
		store:     store,
		directory: directory,
		ranks:     ranks,
		now:       time.Now,
	}
}

// ProposeCampaign validates a nomination and builds the unpersisted proposal
func (s *PromotionsService) ProposeCampaign(
	ctx context.Context,
	req models.NominationRequest,
) (models.ProposedPromotionCampaign, error) {
	if strings.TrimSpace(req.Comment) == "" {
		return models.ProposedPromotionCampaign{}, fmt.Errorf("%w: a nomination comment is required", models.ErrValidation)
	}

	if err := s.ensureNoOpenCampaign(ctx, req.GuildID, req.SubjectUserID); err != nil {
		return models.ProposedPromotionCampaign{}, err
	}

	return models.ProposedPromotionCampaign{
		GuildID:            req.GuildID,
		SubjectUserID:      req.SubjectUserID,
		SubjectDisplayName: s.directory.DisplayName(ctx, req.GuildID, req.SubjectUserID),
		TargetRoleID:       req.TargetRoleID,
		TargetRoleName:     s.directory.RoleName(ctx, req.GuildID, req.TargetRoleID),
		NominatingUserID:   req.NominatingUserID,
		CreatedAt:          s.now(),
	}, nil
}

// CreateCampaign proposes a campaign, asks confirm for a decision, and persists
// the campaign with the nomination comment as its first approval when confirmed.
// Nothing is stored when confirm returns false.
func (s *PromotionsService) CreateCampaign(
	ctx context.Context,
	req models.NominationRequest,
	confirm ConfirmFunc,
) (*NominationResult, error) {
	proposal, err := s.ProposeCampaign(ctx, req)
	if err != nil {
		return nil, err
	}

	if !confirm(ctx, proposal) {
		log.Printf("[Promotions] Nomination of user %d in guild %d was not confirmed", req.SubjectUserID, req.GuildID)
		return &NominationResult{Confirmed: false}, nil
	}

	campaign := &models.PromotionCampaign{
		GuildID:          proposal.GuildID,
		SubjectUserID:    proposal.SubjectUserID,
		TargetRoleID:     proposal.TargetRoleID,
		NominatingUserID: proposal.NominatingUserID,
		CreatedAt:        s.now(),
	}
	comment := &models.PromotionComment{
		AuthorUserID: proposal.NominatingUserID,
		Sentiment:    models.PromotionSentimentApprove,
		Content:      strings.TrimSpace(req.Comment),
		PostedAt:     campaign.CreatedAt,
	}

	if err := s.store.CreateCampaign(ctx, campaign, comment); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	campaign.Comments = []models.PromotionComment{*comment}

	log.Printf("[Promotions] Campaign %d created for user %d (role %d) by %d",
		campaign.ID, campaign.SubjectUserID, campaign.TargetRoleID, campaign.NominatingUserID)

	return &NominationResult{Confirmed: true, Campaign: campaign}, nil
}

// AddComment records a vote on an open campaign
func (s *PromotionsService) AddComment(
	ctx context.Context,
	campaignID uint,
	authorUserID uint64,
	sentiment models.PromotionSentiment,
	content string,
) (*models.PromotionComment, error) {
	if !sentiment.Valid() {
		return nil, fmt.Errorf("%w: unknown sentiment %q", models.ErrValidation, sentiment)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", models.ErrValidation)
	}

	comment := &models.PromotionComment{
		CampaignID:   campaignID,
		AuthorUserID: authorUserID,
		Sentiment:    sentiment,
		Content:      content,
		PostedAt:     s.now(),
	}

	if err := s.store.AppendComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return comment, nil
}

// AcceptCampaign closes the campaign as accepted, then grants the rank. A failed
// grant is reported wrapped in ErrRankAssignment; the acceptance stays recorded.
func (s *PromotionsService) AcceptCampaign(ctx context.Context, campaignID uint) (*models.PromotionCampaign, error) {
	campaign, err := s.store.SetOutcome(ctx, campaignID, models.CampaignOutcomeAccepted, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to accept campaign: %w", err)
	}

	log.Printf("[Promotions] Campaign %d accepted", campaignID)

	if err := s.ranks.AssignRank(ctx, campaign); err != nil {
		log.Printf("[Promotions] Campaign %d accepted but rank %d was not granted to user %d: %v",
			campaignID, campaign.TargetRoleID, campaign.SubjectUserID, err)
		return campaign, errors.Join(models.ErrRankAssignment, err)
	}
	return campaign, nil
}

// RejectCampaign closes the campaign as rejected
func (s *PromotionsService) RejectCampaign(ctx context.Context, campaignID uint) (*models.PromotionCampaign, error) {
	campaign, err := s.store.SetOutcome(ctx, campaignID, models.CampaignOutcomeRejected, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to reject campaign: %w", err)
	}

	log.Printf("[Promotions] Campaign %d rejected", campaignID)
	return campaign, nil
}

// GetCampaign returns a campaign with all of its comments
func (s *PromotionsService) GetCampaign(ctx context.Context, campaignID uint) (*models.PromotionCampaign, error) {
	return s.store.GetCampaign(ctx, campaignID)
}

// SearchCampaigns returns briefs with tallies computed from each campaign's comments
func (s *PromotionsService) SearchCampaigns(
	ctx context.Context,
	criteria models.CampaignSearchCriteria,
) ([]models.CampaignBrief, error) {
	campaigns, err := s.store.SearchCampaigns(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search campaigns: %w", err)
	}

	briefs := make([]models.CampaignBrief, 0, len(campaigns))
	for _, campaign := range campaigns {
		briefs = append(briefs, s.brief(ctx, campaign))
	}
	return briefs, nil
}

func (s *PromotionsService) brief(ctx context.Context, campaign *models.PromotionCampaign) models.CampaignBrief {
	tally := TallyComments(campaign.Comments)
	return models.CampaignBrief{
		ID:                 campaign.ID,
		GuildID:            campaign.GuildID,
		SubjectUserID:      campaign.SubjectUserID,
		SubjectDisplayName: s.directory.DisplayName(ctx, campaign.GuildID, campaign.SubjectUserID),
		TargetRoleID:       campaign.TargetRoleID,
		TargetRoleName:     s.directory.RoleName(ctx, campaign.GuildID, campaign.TargetRoleID),
		IsClosed:           campaign.IsClosed,
		Outcome:            campaign.Outcome,
		Tally:              tally,
		TotalVotes:         TotalVotes(tally),
		ApprovalPercentage: ApprovalPercentage(tally),
		Summary:            VotesSummary(tally),
		CreatedAt:          campaign.CreatedAt,
	}
}

func (s *PromotionsService) ensureNoOpenCampaign(ctx context.Context, guildID, subjectUserID uint64) error {
	closed := false
	open, err := s.store.SearchCampaigns(ctx, models.CampaignSearchCriteria{
		GuildID:       guildID,
		IsClosed:      &closed,
		SubjectUserID: &subjectUserID,
	})
	if err != nil {
		return fmt.Errorf("failed to check open campaigns: %w", err)
	}
	if len(open) > 0 {
		return fmt.Errorf("%w: user %d already has open campaign %d", models.ErrConflict, subjectUserID, open[0].ID)
	}
	return nil
}
