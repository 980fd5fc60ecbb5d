package jobs

import (
	"context"
	"log"
	"time"

	"promotion-campaigns/internal/reactions"
)

// StatusMessageJanitor periodically deletes finished nomination status messages
type StatusMessageJanitor struct {
	board    reactions.Board
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
	stopChan chan struct{}
	done     chan struct{}
}

// NewStatusMessageJanitor creates a janitor that keeps finished messages for ttl
func NewStatusMessageJanitor(board reactions.Board, interval, ttl time.Duration) *StatusMessageJanitor {
	return &StatusMessageJanitor{
		board:    board,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the cleanup loop until Stop is called
func (j *StatusMessageJanitor) Start() {
	defer close(j.done)
	log.Printf("[Janitor] Starting status message cleanup (interval: %v, ttl: %v)", j.interval, j.ttl)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.Sweep(context.Background())
		case <-j.stopChan:
			log.Println("[Janitor] Stopping status message cleanup")
			return
		}
	}
}

// Stop stops the cleanup loop and waits for it to exit
func (j *StatusMessageJanitor) Stop() {
	close(j.stopChan)
	<-j.done
}

// Sweep prunes messages that finished more than ttl ago
func (j *StatusMessageJanitor) Sweep(ctx context.Context) int {
	pruned, err := j.board.Prune(ctx, j.now().Add(-j.ttl))
	if err != nil {
		log.Printf("[Janitor] Error pruning status messages: %v", err)
		return 0
	}
	if pruned > 0 {
		log.Printf("[Janitor] Pruned %d status messages", pruned)
	}
	return pruned
}
