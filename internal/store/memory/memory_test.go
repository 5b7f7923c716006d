package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/vovakirdan/wirerelay-server/internal/store"
)

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		msg, err := s.Append(ctx, "hello", "alice")
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if msg.ID <= prev {
			t.Fatalf("expected id > %d, got %d", prev, msg.ID)
		}
		prev = msg.ID
	}
}

func TestAppendConcurrentIDsUnique(t *testing.T) {
	s := New()
	ctx := context.Background()

	const n = 100
	ids := make([]int64, 0, n)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg, err := s.Append(ctx, "race", "bob")
			if err != nil {
				t.Errorf("append failed: %v", err)
				return
			}
			mu.Lock()
			ids = append(ids, msg.ID)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			t.Fatalf("duplicate id %d", ids[i])
		}
	}
}

func TestFindAfter(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := s.Append(ctx, "msg", "alice"); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	all, err := s.FindAfter(ctx, 0)
	if err != nil {
		t.Fatalf("find after 0 failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(all))
	}

	tail, err := s.FindAfter(ctx, 2)
	if err != nil {
		t.Fatalf("find after 2 failed: %v", err)
	}
	if len(tail) != 2 || tail[0].ID != 3 {
		t.Fatalf("unexpected tail: %+v", tail)
	}

	none, err := s.FindAfter(ctx, 99)
	if err != nil {
		t.Fatalf("find after 99 failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected empty result, got %d", len(none))
	}
}

func TestFindAfterSkipsDeleted(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Append(ctx, "msg", "alice"); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	if err := s.DeleteByID(ctx, 2); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	all, err := s.FindAfter(ctx, 0)
	if err != nil {
		t.Fatalf("find after failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != 1 || all[1].ID != 3 {
		t.Fatalf("unexpected log: %+v", all)
	}
}

func TestDeleteByID(t *testing.T) {
	s := New()
	ctx := context.Background()

	msg, err := s.Append(ctx, "doomed", "alice")
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if err := s.DeleteByID(ctx, msg.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := s.DeleteByID(ctx, msg.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := s.FindByID(ctx, msg.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestIDNotReusedAfterDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	var lastID int64
	for i := 0; i < 3; i++ {
		msg, err := s.Append(ctx, "msg", "alice")
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
		lastID = msg.ID
	}

	if err := s.DeleteByID(ctx, lastID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	msg, err := s.Append(ctx, "fresh", "alice")
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if msg.ID <= lastID {
		t.Fatalf("id %d reused after deleting %d", msg.ID, lastID)
	}
}

func TestReturnedMessagesAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	msg, err := s.Append(ctx, "original", "alice")
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	msg.Content = "tampered"

	got, err := s.FindByID(ctx, msg.ID)
	if err != nil {
		t.Fatalf("find by id failed: %v", err)
	}
	if got.Content != "original" {
		t.Errorf("stored message mutated through returned pointer: %q", got.Content)
	}
}

func TestCreateUser(t *testing.T) {
	s := New()
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "alice", "hash", false)
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if user.ID == 0 || user.Username != "alice" {
		t.Errorf("unexpected user: %+v", user)
	}

	if _, err := s.CreateUser(ctx, "alice", "otherhash", true); !errors.Is(err, store.ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}

	got, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if got.ID != user.ID || got.IsGuest {
		t.Errorf("unexpected user: %+v", got)
	}

	if _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
