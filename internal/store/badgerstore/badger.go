package badgerstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vovakirdan/wirerelay-server/internal/store"
)

// Key layout:
//
//	msg:<8-byte big-endian id>  -> messageRecord JSON
//	user:<username>             -> userRecord JSON
//	seq:msg, seq:user           -> badger sequences
//
// Big-endian ids make the default iterator order equal to id order.
var (
	msgPrefix  = []byte("msg:")
	userPrefix = []byte("user:")
)

type messageRecord struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type userRecord struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	IsGuest      bool      `json:"is_guest"`
	CreatedAt    time.Time `json:"created_at"`
}

// BadgerStore implements store.Store on top of BadgerDB.
type BadgerStore struct {
	db      *badger.DB
	msgSeq  *badger.Sequence
	userSeq *badger.Sequence
}

// New opens (or creates) a Badger database at path. Badger's own logger is
// silenced; the caller logs storage failures.
func New(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	// Bandwidth 1 keeps ids dense across restarts. Leaked leases only
	// produce gaps, never reuse.
	msgSeq, err := db.GetSequence([]byte("seq:msg"), 1)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open message sequence: %w", err)
	}
	userSeq, err := db.GetSequence([]byte("seq:user"), 1)
	if err != nil {
		msgSeq.Release()
		db.Close()
		return nil, fmt.Errorf("open user sequence: %w", err)
	}

	return &BadgerStore{db: db, msgSeq: msgSeq, userSeq: userSeq}, nil
}

// Close releases the sequences and closes the database.
func (s *BadgerStore) Close() error {
	s.msgSeq.Release()
	s.userSeq.Release()
	return s.db.Close()
}

func msgKey(id int64) []byte {
	key := make([]byte, len(msgPrefix)+8)
	copy(key, msgPrefix)
	binary.BigEndian.PutUint64(key[len(msgPrefix):], uint64(id))
	return key
}

func userKey(username string) []byte {
	return append(append([]byte{}, userPrefix...), username...)
}

// ==== MessageLog implementation ====

// Append persists a new message and returns the stored record.
func (s *BadgerStore) Append(ctx context.Context, content, author string) (*store.Message, error) {
	next, err := s.msgSeq.Next()
	if err != nil {
		return nil, fmt.Errorf("next message id: %w", err)
	}
	// Sequences start at 0; ids start at 1.
	id := int64(next) + 1

	rec := messageRecord{
		ID:        id,
		Author:    author,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(msgKey(id), data)
	})
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return &store.Message{
		ID:        rec.ID,
		Author:    rec.Author,
		Content:   rec.Content,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// FindAfter returns all messages with id greater than offset, ascending.
func (s *BadgerStore) FindAfter(ctx context.Context, offset int64) ([]*store.Message, error) {
	var messages []*store.Message

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(msgKey(offset + 1)); it.ValidForPrefix(msgPrefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var rec messageRecord
				if err := json.Unmarshal(v, &rec); err != nil {
					return fmt.Errorf("unmarshal message: %w", err)
				}
				messages = append(messages, &store.Message{
					ID:        rec.ID,
					Author:    rec.Author,
					Content:   rec.Content,
					CreatedAt: rec.CreatedAt,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	return messages, nil
}

// FindByID retrieves a single message by id.
func (s *BadgerStore) FindByID(ctx context.Context, id int64) (*store.Message, error) {
	var msg *store.Message

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(msgKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			var rec messageRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal message: %w", err)
			}
			msg = &store.Message{
				ID:        rec.ID,
				Author:    rec.Author,
				Content:   rec.Content,
				CreatedAt: rec.CreatedAt,
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}

	return msg, nil
}

// DeleteByID removes a message, reporting ErrNotFound when no key matched.
func (s *BadgerStore) DeleteByID(ctx context.Context, id int64) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		// Badger deletes are blind; check existence first so the caller
		// can tell "already gone" from "removed".
		if _, err := txn.Get(msgKey(id)); err != nil {
			return err
		}
		return txn.Delete(msgKey(id))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return fmt.Errorf("delete message: %w", err)
	}

	return nil
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *BadgerStore) CreateUser(ctx context.Context, username, passwordHash string, isGuest bool) (*store.User, error) {
	next, err := s.userSeq.Next()
	if err != nil {
		return nil, fmt.Errorf("next user id: %w", err)
	}

	rec := userRecord{
		ID:           int64(next) + 1,
		Username:     username,
		PasswordHash: passwordHash,
		IsGuest:      isGuest,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(userKey(username))
		if err == nil {
			return store.ErrExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(userKey(username), data)
	})
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			return nil, fmt.Errorf("user %q: %w", username, store.ErrExists)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &store.User{
		ID:           rec.ID,
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		IsGuest:      rec.IsGuest,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

// GetUserByUsername retrieves a user by username.
func (s *BadgerStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	var user *store.User

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			var rec userRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal user: %w", err)
			}
			user = &store.User{
				ID:           rec.ID,
				Username:     rec.Username,
				PasswordHash: rec.PasswordHash,
				IsGuest:      rec.IsGuest,
				CreatedAt:    rec.CreatedAt,
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}
