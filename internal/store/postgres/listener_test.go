package postgres

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"Centavo/config"
	"Centavo/internal/store"

	"github.com/oklog/ulid/v2"
)

func TestDecodeNotifyPayload(t *testing.T) {
	t.Parallel()

	userID := ulid.Make()

	t.Run("valid", func(t *testing.T) {
		payload := fmt.Sprintf(`{"table":"goals","op":"UPDATE","user_id":"%s"}`, userID)
		change, err := decodeNotifyPayload(payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if change.Table != store.TableGoals || change.Op != store.OpUpdate || change.UserID != userID {
			t.Fatalf("unexpected change %+v", change)
		}
	})

	t.Run("not json", func(t *testing.T) {
		if _, err := decodeNotifyPayload("not json"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("missing table", func(t *testing.T) {
		payload := fmt.Sprintf(`{"op":"INSERT","user_id":"%s"}`, userID)
		if _, err := decodeNotifyPayload(payload); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("bad user id", func(t *testing.T) {
		if _, err := decodeNotifyPayload(`{"table":"goals","op":"INSERT","user_id":"abc"}`); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestListenerDispatchMatchesTableAndOwner(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Listener.Channel = "centavo_changes"
	listener := NewListener(cfg)

	owner := ulid.Make()
	other := ulid.Make()

	var mu sync.Mutex
	var received []store.Change
	record := func(change store.Change) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, change)
	}

	subGoals, err := listener.Subscribe(store.TableGoals, owner, record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := listener.Subscribe(store.TableTransactions, owner, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := listener.Subscribe(store.TableGoals, other, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listener.dispatch(store.Change{Table: store.TableGoals, Op: store.OpInsert, UserID: owner})

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		count := len(received)
		mu.Unlock()
		if count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected exactly 1 delivery, got %d", count)
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	got := received[0]
	mu.Unlock()
	if got.Table != store.TableGoals || got.UserID != owner {
		t.Fatalf("unexpected change %+v", got)
	}

	// Depois de cancelar, a mesma notificação não entrega mais nada.
	subGoals.Unsubscribe()
	listener.dispatch(store.Change{Table: store.TableGoals, Op: store.OpInsert, UserID: owner})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	count := len(received)
	mu.Unlock()
	if count != 1 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", count)
	}
}

func TestNextBackoffDoublesUpToMax(t *testing.T) {
	t.Parallel()

	max := 30 * time.Second
	wait := time.Second
	for _, want := range []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second, 30 * time.Second} {
		wait = nextBackoff(wait, max)
		if wait != want {
			t.Fatalf("expected %s, got %s", want, wait)
		}
	}
}
