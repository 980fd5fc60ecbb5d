package models

import (
	"fmt"
	"strings"
	"time"
)

type PromotionSentiment string

const (
	PromotionSentimentApprove PromotionSentiment = "APPROVE"
	PromotionSentimentOppose  PromotionSentiment = "OPPOSE"
	PromotionSentimentAbstain PromotionSentiment = "ABSTAIN"
)

// PromotionSentiments lists every valid sentiment in display order
var PromotionSentiments = []PromotionSentiment{
	PromotionSentimentApprove,
	PromotionSentimentOppose,
	PromotionSentimentAbstain,
}

// Valid reports whether s is one of the fixed sentiments
func (s PromotionSentiment) Valid() bool {
	switch s {
	case PromotionSentimentApprove, PromotionSentimentOppose, PromotionSentimentAbstain:
		return true
	}
	return false
}

// ParsePromotionSentiment parses a sentiment name, ignoring case
func ParsePromotionSentiment(raw string) (PromotionSentiment, error) {
	s := PromotionSentiment(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown sentiment %q", ErrValidation, raw)
	}
	return s, nil
}

type CampaignOutcome string

const (
	CampaignOutcomePending  CampaignOutcome = "PENDING"
	CampaignOutcomeAccepted CampaignOutcome = "ACCEPTED"
	CampaignOutcomeRejected CampaignOutcome = "REJECTED"
)

// PromotionCampaign tracks one nomination of a guild member for a rank
type PromotionCampaign struct {
	ID               uint               `gorm:"primaryKey" json:"id"`
	GuildID          uint64             `gorm:"not null;index:idx_campaign_guild_subject" json:"guild_id"`
	SubjectUserID    uint64             `gorm:"not null;index:idx_campaign_guild_subject" json:"subject_user_id"`
	TargetRoleID     uint64             `gorm:"not null" json:"target_role_id"`
	NominatingUserID uint64             `gorm:"not null" json:"nominating_user_id"`
	IsClosed         bool               `gorm:"not null;default:false;index" json:"is_closed"`
	Outcome          CampaignOutcome    `gorm:"size:20;not null;default:PENDING" json:"outcome"`
	OpenSubjectKey   *string            `gorm:"size:64;uniqueIndex" json:"-"` // set only while open
	CreatedAt        time.Time          `json:"created_at"`
	ClosedAt         *time.Time         `json:"closed_at,omitempty"`
	Comments         []PromotionComment `gorm:"foreignKey:CampaignID" json:"comments,omitempty"`
}

func (PromotionCampaign) TableName() string {
	return "promotion_campaigns"
}

// OpenCampaignKey is the value of OpenSubjectKey for an open campaign. The unique
// index on it allows at most one open campaign per guild member.
func OpenCampaignKey(guildID, subjectUserID uint64) string {
	return fmt.Sprintf("%d:%d", guildID, subjectUserID)
}

// PromotionComment is an append-only, sentiment-tagged vote on a campaign
type PromotionComment struct {
	ID           uint               `gorm:"primaryKey" json:"id"`
	CampaignID   uint               `gorm:"not null;index" json:"campaign_id"`
	AuthorUserID uint64             `gorm:"not null" json:"author_user_id"`
	Sentiment    PromotionSentiment `gorm:"size:20;not null" json:"sentiment"`
	Content      string             `gorm:"type:text;not null" json:"content"`
	PostedAt     time.Time          `gorm:"not null" json:"posted_at"`
}

func (PromotionComment) TableName() string {
	return "promotion_comments"
}

// ProposedPromotionCampaign is a nomination that has not been confirmed yet.
// It never touches the database.
type ProposedPromotionCampaign struct {
	GuildID            uint64    `json:"guild_id"`
	SubjectUserID      uint64    `json:"subject_user_id"`
	SubjectDisplayName string    `json:"subject_display_name"`
	TargetRoleID       uint64    `json:"target_role_id"`
	TargetRoleName     string    `json:"target_role_name"`
	NominatingUserID   uint64    `json:"nominating_user_id"`
	CreatedAt          time.Time `json:"created_at"`
}

// CampaignSearchCriteria filters SearchCampaigns. GuildID is required.
type CampaignSearchCriteria struct {
	GuildID       uint64
	IsClosed      *bool
	SubjectUserID *uint64
}

// Tally counts comments per sentiment
type Tally map[PromotionSentiment]int

// CampaignBrief is the read model handed to display collaborators
type CampaignBrief struct {
	ID                 uint            `json:"id"`
	GuildID            uint64          `json:"guild_id"`
	SubjectUserID      uint64          `json:"subject_user_id"`
	SubjectDisplayName string          `json:"subject_display_name"`
	TargetRoleID       uint64          `json:"target_role_id"`
	TargetRoleName     string          `json:"target_role_name"`
	IsClosed           bool            `json:"is_closed"`
	Outcome            CampaignOutcome `json:"outcome"`
	Tally              Tally           `json:"tally"`
	TotalVotes         int             `json:"total_votes"`
	ApprovalPercentage int             `json:"approval_percentage"`
	Summary            string          `json:"summary"`
	CreatedAt          time.Time       `json:"created_at"`
}

// NominationRequest carries the inputs of a nomination attempt
type NominationRequest struct {
	GuildID          uint64
	SubjectUserID    uint64
	TargetRoleID     uint64
	NominatingUserID uint64
	Comment          string
}
