// Package reactions stores nomination status messages and the reactions users add
// to them. A Message is the ReactionSource and Notifier of one confirmation run.
package reactions

import (
	"context"
	"fmt"
	"time"

	"promotion-campaigns/internal/models"
)

// Message is one status message
type Message interface {
	ID() string
	Post(ctx context.Context, content string, affordances ...models.Emote) error
	ClearReactions(ctx context.Context) error
	Update(ctx context.Context, content string) error
	UsersReacting(ctx context.Context, emote models.Emote) ([]uint64, error)
	AttachCampaign(ctx context.Context, campaignID uint) error
}

// Board creates status messages and records reactions on them
type Board interface {
	Create(ctx context.Context, guildID uint64) (Message, error)
	React(ctx context.Context, messageID string, userID uint64, emote models.Emote) error
	Get(ctx context.Context, messageID string) (*models.StatusMessage, error)
	// Prune deletes finished messages last updated before the cutoff
	Prune(ctx context.Context, finishedBefore time.Time) (int, error)
}

func messageNotFound(id string) error {
	return fmt.Errorf("%w: status message %s", models.ErrNotFound, id)
}

func reactionsClosed(id string, emote models.Emote) error {
	return fmt.Errorf("%w: status message %s does not accept %s reactions", models.ErrInvalidState, id, emote)
}

func hasAffordance(affordances []models.Emote, emote models.Emote) bool {
	for _, a := range affordances {
		if a == emote {
			return true
		}
	}
	return false
}
