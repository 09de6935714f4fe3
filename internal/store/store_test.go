package store

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testStore runs the Store contract against a fresh store from newStore.
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("adds key and value", func(t *testing.T) {
		s := newStore(t)
		if err := s.Add(ctx, "key", "val"); err != nil {
			t.Fatal(err)
		}

		exists, err := s.Exists(ctx, "key")
		if err != nil {
			t.Fatal(err)
		}
		if !exists {
			t.Fatal("expected key to exist")
		}

		entry, ok, err := s.Get(ctx, "key")
		if err != nil || !ok {
			t.Fatalf("expected entry, got ok=%v err=%v", ok, err)
		}
		if entry.Visited {
			t.Error("expected new entry to be unvisited")
		}
		if !slices.Equal(entry.Outbound, []string{"val"}) {
			t.Errorf("expected [val], got %v", entry.Outbound)
		}
	})

	t.Run("appends to existing key", func(t *testing.T) {
		s := newStore(t)
		_ = s.Add(ctx, "key", "val")
		_ = s.Add(ctx, "key", "val2")
		_ = s.Add(ctx, "key", "val")

		entry, _, err := s.Get(ctx, "key")
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(entry.Outbound, []string{"val", "val2", "val"}) {
			t.Errorf("expected append log with duplicate, got %v", entry.Outbound)
		}
	})

	t.Run("add without value is idempotent", func(t *testing.T) {
		s := newStore(t)
		_ = s.Add(ctx, "key", "first")
		for range 3 {
			if err := s.Add(ctx, "key"); err != nil {
				t.Fatal(err)
			}
		}

		entry, ok, err := s.Get(ctx, "key")
		if err != nil || !ok {
			t.Fatalf("expected entry, got ok=%v err=%v", ok, err)
		}
		if entry.Visited {
			t.Error("expected entry to stay unvisited")
		}
		if !slices.Equal(entry.Outbound, []string{"first"}) {
			t.Errorf("expected outbound unchanged, got %v", entry.Outbound)
		}

		snap, err := s.Snapshot(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(snap) != 1 {
			t.Errorf("expected one entry, got %d", len(snap))
		}
	})

	t.Run("add without value creates empty entry", func(t *testing.T) {
		s := newStore(t)
		_ = s.Add(ctx, "key")

		entry, ok, err := s.Get(ctx, "key")
		if err != nil || !ok {
			t.Fatalf("expected entry, got ok=%v err=%v", ok, err)
		}
		if entry.Visited || len(entry.Outbound) != 0 {
			t.Errorf("expected empty unvisited entry, got %+v", entry)
		}
	})

	t.Run("visited is monotonic", func(t *testing.T) {
		s := newStore(t)
		_ = s.Add(ctx, "key", "val")

		visited, _ := s.HasVisited(ctx, "key")
		if visited {
			t.Fatal("expected unvisited before MarkVisited")
		}

		_ = s.MarkVisited(ctx, "key")
		_ = s.MarkVisited(ctx, "key")
		_ = s.Add(ctx, "key")
		_ = s.Add(ctx, "key", "more")

		visited, err := s.HasVisited(ctx, "key")
		if err != nil {
			t.Fatal(err)
		}
		if !visited {
			t.Error("expected key to stay visited")
		}
	})

	t.Run("absent keys degrade to false", func(t *testing.T) {
		s := newStore(t)

		if err := s.MarkVisited(ctx, "missing"); err != nil {
			t.Fatalf("expected no-op, got %v", err)
		}
		if exists, _ := s.Exists(ctx, "missing"); exists {
			t.Error("MarkVisited must not create entries")
		}
		if visited, _ := s.HasVisited(ctx, "missing"); visited {
			t.Error("expected HasVisited false for absent key")
		}
		if _, ok, _ := s.Get(ctx, "missing"); ok {
			t.Error("expected Get to report not found")
		}
	})

	t.Run("get returns a copy", func(t *testing.T) {
		s := newStore(t)
		_ = s.Add(ctx, "key", "a")

		entry, _, _ := s.Get(ctx, "key")
		entry.Outbound[0] = "mutated"
		entry.Visited = true

		again, _, _ := s.Get(ctx, "key")
		if again.Outbound[0] != "a" || again.Visited {
			t.Errorf("stored entry was mutated through Get: %+v", again)
		}
	})
}

func TestMemory(t *testing.T) {
	t.Parallel()

	testStore(t, func(*testing.T) Store { return NewMemory() })
}

func TestMemoryConcurrentAdd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemory()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Add(ctx, "src", fmt.Sprintf("dst%d", i))
			_ = s.Add(ctx, fmt.Sprintf("dst%d", i))
			_ = s.MarkVisited(ctx, "src")
		}()
	}
	wg.Wait()

	entry, _, _ := s.Get(ctx, "src")
	if len(entry.Outbound) != 100 {
		t.Errorf("expected 100 edges, got %d", len(entry.Outbound))
	}
	if !entry.Visited {
		t.Error("expected src visited")
	}
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshot) != 101 {
		t.Errorf("expected 101 entries, got %d", len(snapshot))
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })

	testStore(t, func(t *testing.T) Store {
		s := NewRedis(client, "sitecrawler:test:"+uuid.NewString()+":")
		t.Cleanup(func() { _ = s.Clear(context.Background()) })
		return s
	})
}
