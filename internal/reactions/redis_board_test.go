package reactions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"promotion-campaigns/internal/models"
)

const testMessageTTL = time.Hour

func newTestRedisBoard(t *testing.T) (*RedisBoard, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisBoard(client, testMessageTTL), mr
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	for _, addr := range []string{mr.Addr(), "redis://" + mr.Addr()} {
		client, err := ConnectRedis(ctx, addr)
		if err != nil {
			t.Fatalf("ConnectRedis(%q) failed: %v", addr, err)
		}
		_ = client.Close()
	}

	if _, err := ConnectRedis(ctx, "redis://localhost:port"); err == nil {
		t.Error("expected an error for a malformed url")
	}

	addr := mr.Addr()
	mr.Close()
	if _, err := ConnectRedis(ctx, addr); err == nil {
		t.Error("expected an error when redis is unreachable")
	}
}

func TestRedisBoard_ReactRequiresAffordance(t *testing.T) {
	board, _ := newTestRedisBoard(t)
	ctx := context.Background()

	msg, err := board.Create(ctx, 100)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := board.React(ctx, msg.ID(), 1, models.EmoteConfirm); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState before the message is posted, got %v", err)
	}

	if err := msg.Post(ctx, "pick one", models.EmoteConfirm); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if err := board.React(ctx, msg.ID(), 1, models.EmoteCancel); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for an emote the message does not offer, got %v", err)
	}
	if err := board.React(ctx, msg.ID(), 1, models.EmoteConfirm); err != nil {
		t.Errorf("React failed: %v", err)
	}

	if err := board.React(ctx, "missing", 1, models.EmoteConfirm); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := board.Get(ctx, "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound from Get, got %v", err)
	}
}

func TestRedisBoard_UsersReacting(t *testing.T) {
	board, _ := newTestRedisBoard(t)
	ctx := context.Background()

	msg, _ := board.Create(ctx, 100)
	if err := msg.Post(ctx, "pick one", models.EmoteConfirm, models.EmoteCancel); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	// Snowflake-sized IDs must survive the set encoding
	for _, userID := range []uint64{30, 10, 1152921504606846976, 10} {
		if err := board.React(ctx, msg.ID(), userID, models.EmoteConfirm); err != nil {
			t.Fatalf("React failed: %v", err)
		}
	}

	users, err := msg.UsersReacting(ctx, models.EmoteConfirm)
	if err != nil {
		t.Fatalf("UsersReacting failed: %v", err)
	}
	if len(users) != 3 || users[0] != 10 || users[1] != 30 || users[2] != 1152921504606846976 {
		t.Errorf("expected sorted distinct users [10 30 1152921504606846976], got %v", users)
	}

	users, err = msg.UsersReacting(ctx, models.EmoteCancel)
	if err != nil {
		t.Fatalf("UsersReacting failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected no cancel reactions, got %v", users)
	}

	snapshot, err := board.Get(ctx, msg.ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if snapshot.Content != "pick one" || snapshot.GuildID != 100 || snapshot.Finished {
		t.Errorf("unexpected snapshot: %+v", snapshot)
	}
	if len(snapshot.Affordances) != 2 || snapshot.Affordances[0] != models.EmoteConfirm || snapshot.Affordances[1] != models.EmoteCancel {
		t.Errorf("expected confirm and cancel affordances, got %v", snapshot.Affordances)
	}
	if len(snapshot.Reactions[models.EmoteConfirm]) != 3 {
		t.Errorf("expected 3 confirm reactions in snapshot, got %v", snapshot.Reactions)
	}
	if snapshot.CreatedAt.IsZero() || snapshot.UpdatedAt.Before(snapshot.CreatedAt) {
		t.Errorf("unexpected timestamps: created %v updated %v", snapshot.CreatedAt, snapshot.UpdatedAt)
	}
}

func TestRedisBoard_ClearReactionsFinishesMessage(t *testing.T) {
	board, mr := newTestRedisBoard(t)
	ctx := context.Background()

	msg, _ := board.Create(ctx, 100)
	if err := msg.Post(ctx, "pick one", models.EmoteConfirm, models.EmoteCancel); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if err := board.React(ctx, msg.ID(), 1, models.EmoteConfirm); err != nil {
		t.Fatalf("React failed: %v", err)
	}

	if err := msg.ClearReactions(ctx); err != nil {
		t.Fatalf("ClearReactions failed: %v", err)
	}
	if err := msg.Update(ctx, "done"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := msg.AttachCampaign(ctx, 5); err != nil {
		t.Fatalf("AttachCampaign failed: %v", err)
	}

	snapshot, err := board.Get(ctx, msg.ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !snapshot.Finished || snapshot.Content != "done" {
		t.Errorf("expected finished message with updated content, got %+v", snapshot)
	}
	if len(snapshot.Affordances) != 0 || len(snapshot.Reactions) != 0 {
		t.Errorf("expected affordances and reactions to be cleared, got %v and %v", snapshot.Affordances, snapshot.Reactions)
	}
	if snapshot.CampaignID == nil || *snapshot.CampaignID != 5 {
		t.Errorf("expected campaign 5 to be attached, got %v", snapshot.CampaignID)
	}
	if mr.Exists(reactionKey(msg.ID(), models.EmoteConfirm)) {
		t.Error("expected the confirm reaction set to be deleted")
	}

	if err := board.React(ctx, msg.ID(), 1, models.EmoteConfirm); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState after reactions were cleared, got %v", err)
	}
}

func TestRedisBoard_MessagesExpire(t *testing.T) {
	board, mr := newTestRedisBoard(t)
	ctx := context.Background()

	msg, _ := board.Create(ctx, 100)
	if err := msg.Post(ctx, "pick one", models.EmoteConfirm); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if err := board.React(ctx, msg.ID(), 1, models.EmoteConfirm); err != nil {
		t.Fatalf("React failed: %v", err)
	}

	if ttl := mr.TTL(messageKey(msg.ID())); ttl != testMessageTTL {
		t.Errorf("expected message ttl %v, got %v", testMessageTTL, ttl)
	}
	if ttl := mr.TTL(reactionKey(msg.ID(), models.EmoteConfirm)); ttl != testMessageTTL {
		t.Errorf("expected reaction ttl %v, got %v", testMessageTTL, ttl)
	}

	// Writes refresh the expiry
	mr.FastForward(testMessageTTL / 2)
	if err := msg.Update(ctx, "still waiting"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	mr.FastForward(testMessageTTL / 2)
	if _, err := board.Get(ctx, msg.ID()); err != nil {
		t.Fatalf("expected message to outlive its original ttl after an update, got %v", err)
	}

	mr.FastForward(testMessageTTL)
	if _, err := board.Get(ctx, msg.ID()); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected expired message to be gone, got %v", err)
	}
	if err := msg.Update(ctx, "too late"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound when updating an expired message, got %v", err)
	}
}

func TestRedisBoard_ReactRacesClearReactions(t *testing.T) {
	board, _ := newTestRedisBoard(t)
	ctx := context.Background()

	msg, _ := board.Create(ctx, 100)
	if err := msg.Post(ctx, "pick one", models.EmoteConfirm, models.EmoteCancel); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(userID uint64) {
			defer wg.Done()
			errs <- board.React(ctx, msg.ID(), userID, models.EmoteConfirm)
		}(uint64(i + 1))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := msg.ClearReactions(ctx); err != nil {
			t.Errorf("ClearReactions failed: %v", err)
		}
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && !errors.Is(err, models.ErrInvalidState) && !errors.Is(err, redis.TxFailedErr) {
			t.Errorf("unexpected React error: %v", err)
		}
	}

	users, err := msg.UsersReacting(ctx, models.EmoteConfirm)
	if err != nil {
		t.Fatalf("UsersReacting failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected no reactions to survive ClearReactions, got %v", users)
	}
}

func TestRedisBoard_Prune(t *testing.T) {
	board, _ := newTestRedisBoard(t)
	ctx := context.Background()

	msg, _ := board.Create(ctx, 100)
	if err := msg.ClearReactions(ctx); err != nil {
		t.Fatalf("ClearReactions failed: %v", err)
	}

	pruned, err := board.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if pruned != 0 {
		t.Errorf("expected expiry to leave nothing to prune, got %d", pruned)
	}
	if _, err := board.Get(ctx, msg.ID()); err != nil {
		t.Errorf("expected message to be kept until it expires, got %v", err)
	}
}
