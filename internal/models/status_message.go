package models

import (
	"fmt"
	"strings"
	"time"
)

// Emote is a reaction affordance attached to a status message
type Emote string

const (
	EmoteConfirm Emote = "CONFIRM"
	EmoteCancel  Emote = "CANCEL"
)

// Glyph returns the emoji shown for the emote
func (e Emote) Glyph() string {
	switch e {
	case EmoteConfirm:
		return "✅"
	case EmoteCancel:
		return "❌"
	}
	return string(e)
}

// ParseEmote accepts the emote name or its glyph
func ParseEmote(raw string) (Emote, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(EmoteConfirm), EmoteConfirm.Glyph():
		return EmoteConfirm, nil
	case string(EmoteCancel), EmoteCancel.Glyph():
		return EmoteCancel, nil
	}
	return "", fmt.Errorf("%w: unknown emote %q", ErrValidation, raw)
}

// StatusMessage is a snapshot of a nomination status message
type StatusMessage struct {
	ID          string             `json:"id"`
	GuildID     uint64             `json:"guild_id"`
	Content     string             `json:"content"`
	Affordances []Emote            `json:"affordances"`
	Reactions   map[Emote][]uint64 `json:"reactions"`
	CampaignID  *uint              `json:"campaign_id,omitempty"`
	Finished    bool               `json:"finished"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
