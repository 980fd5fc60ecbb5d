package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"promotion-campaigns/internal/models"
)

const (
	DefaultConfirmPollInterval = 1 * time.Second
	DefaultConfirmDeadline     = 10 * time.Second
)

// ConfirmationOutcome is the terminal state of a confirmation run
type ConfirmationOutcome string

const (
	ConfirmationConfirmed ConfirmationOutcome = "CONFIRMED"
	ConfirmationCancelled ConfirmationOutcome = "CANCELLED"
	ConfirmationTimedOut  ConfirmationOutcome = "TIMED_OUT"
)

const (
	cancelledMessage = "Cancellation was successfully received. Cancelling promotion campaign."
	confirmedMessage = "Confirmation was successfully received. Creating promotion campaign."
	timedOutMessage  = "Confirmation was not received. Cancelling promotion campaign."
)

// ReactionSource reports which users reacted to a status message with an emote
type ReactionSource interface {
	UsersReacting(ctx context.Context, emote models.Emote) ([]uint64, error)
}

// Notifier posts and edits the status message of a nomination
type Notifier interface {
	Post(ctx context.Context, content string, affordances ...models.Emote) error
	ClearReactions(ctx context.Context) error
	Update(ctx context.Context, content string) error
}

// Ticker delivers poll ticks. time.Ticker satisfies it through tickerAdapter.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker firing every interval
type TickerFactory func(interval time.Duration) Ticker

type tickerAdapter struct {
	t *time.Ticker
}

func (a tickerAdapter) C() <-chan time.Time { return a.t.C }
func (a tickerAdapter) Stop()               { a.t.Stop() }

// NewTimeTicker is the production TickerFactory
func NewTimeTicker(interval time.Duration) Ticker {
	return tickerAdapter{t: time.NewTicker(interval)}
}

// ConfirmationConfig controls the polling schedule
type ConfirmationConfig struct {
	PollInterval time.Duration
	Deadline     time.Duration
	NewTicker    TickerFactory
}

// ConfirmationWorkflow asks the nominating user to confirm or cancel a proposal by
// reacting to a status message, and polls the reactions until the deadline.
type ConfirmationWorkflow struct {
	pollInterval time.Duration
	deadline     time.Duration
	newTicker    TickerFactory
}

// NewConfirmationWorkflow creates a workflow; zero config values fall back to defaults
func NewConfirmationWorkflow(cfg ConfirmationConfig) *ConfirmationWorkflow {
	w := &ConfirmationWorkflow{
		pollInterval: cfg.PollInterval,
		deadline:     cfg.Deadline,
		newTicker:    cfg.NewTicker,
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultConfirmPollInterval
	}
	if w.deadline <= 0 {
		w.deadline = DefaultConfirmDeadline
	}
	if w.newTicker == nil {
		w.newTicker = NewTimeTicker
	}
	return w
}

// Polls is the number of reaction checks a run performs before timing out
func (w *ConfirmationWorkflow) Polls() int {
	polls := int(w.deadline / w.pollInterval)
	if polls < 1 {
		return 1
	}
	return polls
}

// Deadline returns the configured confirmation window
func (w *ConfirmationWorkflow) Deadline() time.Duration {
	return w.deadline
}

// Run posts the nomination summary and waits for the nominating user's decision.
// Cancel is checked before Confirm on every tick. Only reactions from the
// nominating user count. Cancelling ctx ends the run as TimedOut.
func (w *ConfirmationWorkflow) Run(
	ctx context.Context,
	proposal models.ProposedPromotionCampaign,
	source ReactionSource,
	notifier Notifier,
) ConfirmationOutcome {
	summary := w.summary(proposal)

	if err := notifier.Post(ctx, summary+"\n"+w.instructions(), models.EmoteConfirm, models.EmoteCancel); err != nil {
		log.Printf("[Confirmation] Failed to post status message for user %d: %v", proposal.SubjectUserID, err)
	}

	ticker := w.newTicker(w.pollInterval)
	defer ticker.Stop()

	polls := w.Polls()
	for i := 0; i < polls; i++ {
		select {
		case <-ctx.Done():
			log.Printf("[Confirmation] Nomination of user %d interrupted: %v", proposal.SubjectUserID, ctx.Err())
			w.finish(ctx, notifier, summary, timedOutMessage)
			return ConfirmationTimedOut
		case <-ticker.C():
		}

		if w.reacted(ctx, source, models.EmoteCancel, proposal.NominatingUserID) {
			w.finish(ctx, notifier, summary, cancelledMessage)
			return ConfirmationCancelled
		}

		if w.reacted(ctx, source, models.EmoteConfirm, proposal.NominatingUserID) {
			w.finish(ctx, notifier, summary, confirmedMessage)
			return ConfirmationConfirmed
		}
	}

	w.finish(ctx, notifier, summary, timedOutMessage)
	return ConfirmationTimedOut
}

// Decider binds the workflow to one status message, producing the confirm
// callback PromotionsService.CreateCampaign expects
func (w *ConfirmationWorkflow) Decider(source ReactionSource, notifier Notifier) ConfirmFunc {
	return func(ctx context.Context, proposal models.ProposedPromotionCampaign) bool {
		return w.Run(ctx, proposal, source, notifier) == ConfirmationConfirmed
	}
}

func (w *ConfirmationWorkflow) reacted(ctx context.Context, source ReactionSource, emote models.Emote, userID uint64) bool {
	users, err := source.UsersReacting(ctx, emote)
	if err != nil {
		log.Printf("[Confirmation] Error reading %s reactions: %v", emote, err)
		return false
	}
	for _, id := range users {
		if id == userID {
			return true
		}
	}
	return false
}

// finish detaches from ctx so the message is finalized even after cancellation
func (w *ConfirmationWorkflow) finish(ctx context.Context, notifier Notifier, summary, bottom string) {
	ctx = context.WithoutCancel(ctx)
	if err := notifier.ClearReactions(ctx); err != nil {
		log.Printf("[Confirmation] Failed to clear reactions: %v", err)
	}
	if err := notifier.Update(ctx, summary+"\n"+bottom); err != nil {
		log.Printf("[Confirmation] Failed to update status message: %v", err)
	}
}

func (w *ConfirmationWorkflow) summary(p models.ProposedPromotionCampaign) string {
	subject := p.SubjectDisplayName
	if subject == "" {
		subject = fmt.Sprintf("%d", p.SubjectUserID)
	}
	role := p.TargetRoleName
	if role == "" {
		role = fmt.Sprintf("%d", p.TargetRoleID)
	}
	return fmt.Sprintf("You are nominating user %s for promotion to rank %s.", subject, role)
}

func (w *ConfirmationWorkflow) instructions() string {
	return fmt.Sprintf("React with %s or %s in the next %d seconds to finalize or cancel creation of the campaign.",
		models.EmoteConfirm.Glyph(), models.EmoteCancel.Glyph(), int(w.deadline/time.Second))
}
