package reactions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"promotion-campaigns/internal/models"
)

const redisKeyPrefix = "promotions:message:"

// ConnectRedis initializes a Redis client from URL or host:port input
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisBoard keeps status messages in Redis so that several service instances can
// share them. Messages expire after ttl, so Prune has nothing to do.
type RedisBoard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBoard(client *redis.Client, ttl time.Duration) *RedisBoard {
	return &RedisBoard{client: client, ttl: ttl}
}

func messageKey(id string) string {
	return redisKeyPrefix + id
}

func reactionKey(id string, emote models.Emote) string {
	return redisKeyPrefix + id + ":reactions:" + string(emote)
}

func (b *RedisBoard) Create(ctx context.Context, guildID uint64) (Message, error) {
	id := uuid.NewString()
	now := time.Now().UTC().UnixNano()

	_, err := b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, messageKey(id), map[string]interface{}{
			"guild_id":    guildID,
			"content":     "",
			"affordances": "",
			"finished":    0,
			"created_at":  now,
			"updated_at":  now,
		})
		p.Expire(ctx, messageKey(id), b.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create status message: %w", err)
	}
	return &redisMessage{board: b, id: id}, nil
}

func (b *RedisBoard) React(ctx context.Context, messageID string, userID uint64, emote models.Emote) error {
	key := messageKey(messageID)

	react := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, "affordances").Result()
		if errors.Is(err, redis.Nil) {
			return messageNotFound(messageID)
		}
		if err != nil {
			return err
		}
		if !hasAffordance(splitEmotes(raw), emote) {
			return reactionsClosed(messageID, emote)
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.SAdd(ctx, reactionKey(messageID, emote), userID)
			p.Expire(ctx, reactionKey(messageID, emote), b.ttl)
			return nil
		})
		return err
	}

	// Retry when a concurrent ClearReactions touched the message between read and write
	for attempt := 0; attempt < 3; attempt++ {
		err := b.client.Watch(ctx, react, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("react to status message %s: %w", messageID, redis.TxFailedErr)
}

func (b *RedisBoard) Get(ctx context.Context, messageID string) (*models.StatusMessage, error) {
	fields, err := b.client.HGetAll(ctx, messageKey(messageID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, messageNotFound(messageID)
	}

	msg := &models.StatusMessage{
		ID:          messageID,
		Content:     fields["content"],
		Affordances: splitEmotes(fields["affordances"]),
		Finished:    fields["finished"] == "1",
		Reactions:   make(map[models.Emote][]uint64),
	}
	if guildID, err := strconv.ParseUint(fields["guild_id"], 10, 64); err == nil {
		msg.GuildID = guildID
	}
	if raw, ok := fields["campaign_id"]; ok && raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			campaignID := uint(id)
			msg.CampaignID = &campaignID
		}
	}
	msg.CreatedAt = unixNano(fields["created_at"])
	msg.UpdatedAt = unixNano(fields["updated_at"])

	for _, emote := range []models.Emote{models.EmoteConfirm, models.EmoteCancel} {
		users, err := b.usersReacting(ctx, messageID, emote)
		if err != nil {
			return nil, err
		}
		if len(users) > 0 {
			msg.Reactions[emote] = users
		}
	}
	return msg, nil
}

func (b *RedisBoard) Prune(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (b *RedisBoard) usersReacting(ctx context.Context, messageID string, emote models.Emote) ([]uint64, error) {
	members, err := b.client.SMembers(ctx, reactionKey(messageID, emote)).Result()
	if err != nil {
		return nil, err
	}

	set := make(map[uint64]struct{}, len(members))
	for _, member := range members {
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		set[id] = struct{}{}
	}
	return sortedUsers(set), nil
}

// setFields updates message fields and refreshes the expiry
func (b *RedisBoard) setFields(ctx context.Context, messageID string, values map[string]interface{}, extra func(p redis.Pipeliner)) error {
	key := messageKey(messageID)
	exists, err := b.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return messageNotFound(messageID)
	}

	values["updated_at"] = time.Now().UTC().UnixNano()
	_, err = b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, values)
		p.Expire(ctx, key, b.ttl)
		if extra != nil {
			extra(p)
		}
		return nil
	})
	return err
}

type redisMessage struct {
	board *RedisBoard
	id    string
}

func (m *redisMessage) ID() string { return m.id }

func (m *redisMessage) Post(ctx context.Context, content string, affordances ...models.Emote) error {
	return m.board.setFields(ctx, m.id, map[string]interface{}{
		"content":     content,
		"affordances": joinEmotes(affordances),
	}, nil)
}

func (m *redisMessage) ClearReactions(ctx context.Context) error {
	return m.board.setFields(ctx, m.id, map[string]interface{}{
		"affordances": "",
		"finished":    1,
	}, func(p redis.Pipeliner) {
		p.Del(ctx, reactionKey(m.id, models.EmoteConfirm), reactionKey(m.id, models.EmoteCancel))
	})
}

func (m *redisMessage) Update(ctx context.Context, content string) error {
	return m.board.setFields(ctx, m.id, map[string]interface{}{"content": content}, nil)
}

func (m *redisMessage) UsersReacting(ctx context.Context, emote models.Emote) ([]uint64, error) {
	return m.board.usersReacting(ctx, m.id, emote)
}

func (m *redisMessage) AttachCampaign(ctx context.Context, campaignID uint) error {
	return m.board.setFields(ctx, m.id, map[string]interface{}{"campaign_id": campaignID}, nil)
}

func joinEmotes(emotes []models.Emote) string {
	parts := make([]string, len(emotes))
	for i, e := range emotes {
		parts[i] = string(e)
	}
	return strings.Join(parts, ",")
}

func splitEmotes(raw string) []models.Emote {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	emotes := make([]models.Emote, 0, len(parts))
	for _, p := range parts {
		emotes = append(emotes, models.Emote(p))
	}
	return emotes
}

func unixNano(raw string) time.Time {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
