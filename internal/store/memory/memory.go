package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vovakirdan/wirerelay-server/internal/store"
)

// MemoryStore implements store.Store with in-memory storage. It is meant for
// development and tests; contents are lost on shutdown.
//
// Messages are held in a slice sorted by id (appends always go to the end
// because ids are monotonic). Reads hand out copies so callers cannot mutate
// stored records.
type MemoryStore struct {
	mu         sync.RWMutex
	messages   []*store.Message
	users      map[string]*store.User
	nextMsgID  int64
	nextUserID int64
}

// New creates an empty in-memory store.
func New() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*store.User),
		nextMsgID:  1,
		nextUserID: 1,
	}
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// search returns the index of the first message with id >= want.
func (m *MemoryStore) search(want int64) int {
	return sort.Search(len(m.messages), func(i int) bool {
		return m.messages[i].ID >= want
	})
}

// ==== MessageLog implementation ====

// Append persists a new message and returns the stored record.
func (m *MemoryStore) Append(ctx context.Context, content, author string) (*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := &store.Message{
		ID:        m.nextMsgID,
		Author:    author,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	m.nextMsgID++
	m.messages = append(m.messages, msg)

	cp := *msg
	return &cp, nil
}

// FindAfter returns all messages with id greater than offset, ascending.
func (m *MemoryStore) FindAfter(ctx context.Context, offset int64) ([]*store.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var messages []*store.Message
	for _, msg := range m.messages[m.search(offset + 1):] {
		cp := *msg
		messages = append(messages, &cp)
	}
	return messages, nil
}

// FindByID retrieves a single message by id.
func (m *MemoryStore) FindByID(ctx context.Context, id int64) (*store.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.search(id)
	if i == len(m.messages) || m.messages[i].ID != id {
		return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}

	cp := *m.messages[i]
	return &cp, nil
}

// DeleteByID removes a message, reporting ErrNotFound when absent. Deleting
// the highest id does not free it for reuse.
func (m *MemoryStore) DeleteByID(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.search(id)
	if i == len(m.messages) || m.messages[i].ID != id {
		return fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}

	m.messages = append(m.messages[:i], m.messages[i+1:]...)
	return nil
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (m *MemoryStore) CreateUser(ctx context.Context, username, passwordHash string, isGuest bool) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[username]; exists {
		return nil, fmt.Errorf("user %q: %w", username, store.ErrExists)
	}

	user := &store.User{
		ID:           m.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		IsGuest:      isGuest,
		CreatedAt:    time.Now().UTC(),
	}
	m.nextUserID++
	m.users[username] = user

	cp := *user
	return &cp, nil
}

// GetUserByUsername retrieves a user by username.
func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[username]
	if !exists {
		return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
	}

	cp := *user
	return &cp, nil
}
