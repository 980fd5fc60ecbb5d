package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"promotion-campaigns/internal/models"
	"promotion-campaigns/internal/reactions"
)

// Nominator runs nominations in the background: each one gets a status message on
// the board, and the confirmation workflow polls that message's reactions.
type Nominator struct {
	promotions *PromotionsService
	workflow   *ConfirmationWorkflow
	board      reactions.Board
	lifetime   context.Context
	wg         sync.WaitGroup
}

// NewNominator creates a Nominator. Cancelling lifetime ends every running
// confirmation as timed out.
func NewNominator(
	lifetime context.Context,
	promotions *PromotionsService,
	workflow *ConfirmationWorkflow,
	board reactions.Board,
) *Nominator {
	return &Nominator{
		promotions: promotions,
		workflow:   workflow,
		board:      board,
		lifetime:   lifetime,
	}
}

// StartNomination validates the request, opens a status message, and starts the
// confirmation. It returns once the message carries its reaction affordances.
func (n *Nominator) StartNomination(ctx context.Context, req models.NominationRequest) (string, error) {
	if _, err := n.promotions.ProposeCampaign(ctx, req); err != nil {
		return "", err
	}

	msg, err := n.board.Create(ctx, req.GuildID)
	if err != nil {
		return "", fmt.Errorf("failed to open status message: %w", err)
	}

	posted := &postSignal{Message: msg, posted: make(chan struct{})}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.run(req, posted)
	}()

	select {
	case <-posted.posted:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return msg.ID(), nil
}

// Wait blocks until every started nomination has finished
func (n *Nominator) Wait() {
	n.wg.Wait()
}

func (n *Nominator) run(req models.NominationRequest, msg *postSignal) {
	ctx := n.lifetime
	defer msg.signal()

	result, err := n.promotions.CreateCampaign(ctx, req, n.workflow.Decider(msg, msg))
	if err != nil {
		log.Printf("[Nominator] Nomination of user %d failed: %v", req.SubjectUserID, err)
		n.appendFailure(context.WithoutCancel(ctx), msg, err)
		return
	}
	if !result.Confirmed {
		return
	}

	if err := msg.AttachCampaign(ctx, result.Campaign.ID); err != nil {
		log.Printf("[Nominator] Failed to link status message %s to campaign %d: %v", msg.ID(), result.Campaign.ID, err)
	}
}

func (n *Nominator) appendFailure(ctx context.Context, msg reactions.Message, cause error) {
	content := ""
	if snapshot, err := n.board.Get(ctx, msg.ID()); err == nil {
		content = snapshot.Content + "\n"
	}
	if err := msg.ClearReactions(ctx); err != nil {
		log.Printf("[Nominator] Failed to clear reactions on %s: %v", msg.ID(), err)
	}
	if err := msg.Update(ctx, content+"Campaign could not be created: "+cause.Error()); err != nil {
		log.Printf("[Nominator] Failed to update status message %s: %v", msg.ID(), err)
	}
}

// postSignal closes posted after the first Post, or when the run ends without one
type postSignal struct {
	reactions.Message
	posted chan struct{}
	once   sync.Once
}

func (p *postSignal) Post(ctx context.Context, content string, affordances ...models.Emote) error {
	defer p.signal()
	return p.Message.Post(ctx, content, affordances...)
}

func (p *postSignal) signal() {
	p.once.Do(func() { close(p.posted) })
}
