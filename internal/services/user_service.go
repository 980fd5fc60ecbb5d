package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"promotion-campaigns/internal/models"
)

// DirectoryService resolves guild display names and grants ranks
type DirectoryService struct {
	db *gorm.DB
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(db *gorm.DB) *DirectoryService {
	return &DirectoryService{db: db}
}

// UpsertUser registers or renames a guild member
func (s *DirectoryService) UpsertUser(ctx context.Context, guildID, userID uint64, displayName string) (*models.GuildUser, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", models.ErrValidation)
	}

	user := models.GuildUser{GuildID: guildID, UserID: userID, DisplayName: displayName}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return &user, nil
}

// UpsertRole registers or renames a guild rank
func (s *DirectoryService) UpsertRole(ctx context.Context, guildID, roleID uint64, name string) (*models.GuildRole, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", models.ErrValidation)
	}

	role := models.GuildRole{GuildID: guildID, RoleID: roleID, Name: name}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}, {Name: "role_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&role).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save role: %w", err)
	}
	return &role, nil
}

// DisplayName returns the member's display name, or the numeric ID when unknown
func (s *DirectoryService) DisplayName(ctx context.Context, guildID, userID uint64) string {
	var user models.GuildUser
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		First(&user).Error
	if err != nil {
		return strconv.FormatUint(userID, 10)
	}
	return user.DisplayName
}

// RoleName returns the rank name, or the numeric ID when unknown
func (s *DirectoryService) RoleName(ctx context.Context, guildID, roleID uint64) string {
	var role models.GuildRole
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND role_id = ?", guildID, roleID).
		First(&role).Error
	if err != nil {
		return strconv.FormatUint(roleID, 10)
	}
	return role.Name
}

// AssignRank grants the campaign's target rank to its subject
func (s *DirectoryService) AssignRank(ctx context.Context, campaign *models.PromotionCampaign) error {
	var role models.GuildRole
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND role_id = ?", campaign.GuildID, campaign.TargetRoleID).
		First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("role %d is not registered in guild %d", campaign.TargetRoleID, campaign.GuildID)
	}
	if err != nil {
		return err
	}

	campaignID := campaign.ID
	grant := models.GuildMemberRole{
		GuildID:    campaign.GuildID,
		UserID:     campaign.SubjectUserID,
		RoleID:     campaign.TargetRoleID,
		CampaignID: &campaignID,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&grant).Error
}

// MemberRoles lists the ranks granted to a guild member
func (s *DirectoryService) MemberRoles(ctx context.Context, guildID, userID uint64) ([]models.GuildMemberRole, error) {
	var roles []models.GuildMemberRole
	if err := s.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Order("id ASC").
		Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}
