package models

import (
	"time"
)

// GuildUser holds the display name of a guild member
type GuildUser struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GuildID     uint64    `gorm:"not null;uniqueIndex:idx_guild_user" json:"guild_id"`
	UserID      uint64    `gorm:"not null;uniqueIndex:idx_guild_user" json:"user_id"`
	DisplayName string    `gorm:"size:100;not null" json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GuildUser model
func (GuildUser) TableName() string {
	return "guild_users"
}

// GuildRole is a rank that members can be promoted to
type GuildRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GuildID   uint64    `gorm:"not null;uniqueIndex:idx_guild_role" json:"guild_id"`
	RoleID    uint64    `gorm:"not null;uniqueIndex:idx_guild_role" json:"role_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GuildRole) TableName() string {
	return "guild_roles"
}

// GuildMemberRole records a rank granted by an accepted campaign
type GuildMemberRole struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GuildID    uint64    `gorm:"not null;uniqueIndex:idx_member_role" json:"guild_id"`
	UserID     uint64    `gorm:"not null;uniqueIndex:idx_member_role" json:"user_id"`
	RoleID     uint64    `gorm:"not null;uniqueIndex:idx_member_role" json:"role_id"`
	CampaignID *uint     `gorm:"index" json:"campaign_id,omitempty"`
	GrantedAt  time.Time `gorm:"autoCreateTime" json:"granted_at"`
}

func (GuildMemberRole) TableName() string {
	return "guild_member_roles"
}
