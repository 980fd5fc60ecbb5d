package reactions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"promotion-campaigns/internal/models"
)

// MemoryBoard keeps status messages in process memory
type MemoryBoard struct {
	mu       sync.Mutex
	messages map[string]*memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	msg       models.StatusMessage
	reactions map[models.Emote]map[uint64]struct{}
}

func NewMemoryBoard() *MemoryBoard {
	return NewMemoryBoardWithClock(time.Now)
}

// NewMemoryBoardWithClock uses now for message timestamps
func NewMemoryBoardWithClock(now func() time.Time) *MemoryBoard {
	return &MemoryBoard{
		messages: make(map[string]*memoryEntry),
		now:      now,
	}
}

func (b *MemoryBoard) Create(_ context.Context, guildID uint64) (Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	id := uuid.NewString()
	b.messages[id] = &memoryEntry{
		msg: models.StatusMessage{
			ID:        id,
			GuildID:   guildID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		reactions: make(map[models.Emote]map[uint64]struct{}),
	}
	return &memoryMessage{board: b, id: id}, nil
}

func (b *MemoryBoard) React(_ context.Context, messageID string, userID uint64, emote models.Emote) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.messages[messageID]
	if !ok {
		return messageNotFound(messageID)
	}
	if !hasAffordance(entry.msg.Affordances, emote) {
		return reactionsClosed(messageID, emote)
	}

	users, ok := entry.reactions[emote]
	if !ok {
		users = make(map[uint64]struct{})
		entry.reactions[emote] = users
	}
	users[userID] = struct{}{}
	return nil
}

func (b *MemoryBoard) Get(_ context.Context, messageID string) (*models.StatusMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.messages[messageID]
	if !ok {
		return nil, messageNotFound(messageID)
	}

	snapshot := entry.msg
	snapshot.Affordances = append([]models.Emote(nil), entry.msg.Affordances...)
	snapshot.Reactions = make(map[models.Emote][]uint64, len(entry.reactions))
	for emote, users := range entry.reactions {
		snapshot.Reactions[emote] = sortedUsers(users)
	}
	return &snapshot, nil
}

func (b *MemoryBoard) Prune(_ context.Context, finishedBefore time.Time) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pruned := 0
	for id, entry := range b.messages {
		if entry.msg.Finished && entry.msg.UpdatedAt.Before(finishedBefore) {
			delete(b.messages, id)
			pruned++
		}
	}
	return pruned, nil
}

// update applies fn to a message under the board lock
func (b *MemoryBoard) update(id string, fn func(entry *memoryEntry)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.messages[id]
	if !ok {
		return messageNotFound(id)
	}
	fn(entry)
	entry.msg.UpdatedAt = b.now()
	return nil
}

type memoryMessage struct {
	board *MemoryBoard
	id    string
}

func (m *memoryMessage) ID() string { return m.id }

func (m *memoryMessage) Post(_ context.Context, content string, affordances ...models.Emote) error {
	return m.board.update(m.id, func(entry *memoryEntry) {
		entry.msg.Content = content
		entry.msg.Affordances = append([]models.Emote(nil), affordances...)
	})
}

func (m *memoryMessage) ClearReactions(_ context.Context) error {
	return m.board.update(m.id, func(entry *memoryEntry) {
		entry.msg.Affordances = nil
		entry.msg.Finished = true
		entry.reactions = make(map[models.Emote]map[uint64]struct{})
	})
}

func (m *memoryMessage) Update(_ context.Context, content string) error {
	return m.board.update(m.id, func(entry *memoryEntry) {
		entry.msg.Content = content
	})
}

func (m *memoryMessage) UsersReacting(_ context.Context, emote models.Emote) ([]uint64, error) {
	m.board.mu.Lock()
	defer m.board.mu.Unlock()

	entry, ok := m.board.messages[m.id]
	if !ok {
		return nil, messageNotFound(m.id)
	}
	return sortedUsers(entry.reactions[emote]), nil
}

func (m *memoryMessage) AttachCampaign(_ context.Context, campaignID uint) error {
	return m.board.update(m.id, func(entry *memoryEntry) {
		entry.msg.CampaignID = &campaignID
	})
}

func sortedUsers(set map[uint64]struct{}) []uint64 {
	users := make([]uint64, 0, len(set))
	for id := range set {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}
