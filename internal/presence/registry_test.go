package presence

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryRegistryMarkAndCheck(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	if r.IsOnline(ctx, 1) {
		t.Error("fresh registry reports user 1 online")
	}

	if err := r.MarkOnline(ctx, 1); err != nil {
		t.Fatalf("mark online: %v", err)
	}
	if !r.IsOnline(ctx, 1) {
		t.Error("user 1 not online after MarkOnline")
	}

	if err := r.MarkOffline(ctx, 1); err != nil {
		t.Fatalf("mark offline: %v", err)
	}
	if r.IsOnline(ctx, 1) {
		t.Error("user 1 still online after MarkOffline")
	}
}

func TestMemoryRegistryIdempotent(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	// repeated marks are no-ops, not errors
	for i := 0; i < 3; i++ {
		if err := r.MarkOnline(ctx, 2); err != nil {
			t.Fatalf("mark online #%d: %v", i, err)
		}
	}
	if !r.IsOnline(ctx, 2) {
		t.Error("user 2 not online")
	}

	for i := 0; i < 3; i++ {
		if err := r.MarkOffline(ctx, 2); err != nil {
			t.Fatalf("mark offline #%d: %v", i, err)
		}
	}
	if r.IsOnline(ctx, 2) {
		t.Error("user 2 still online")
	}

	// marking an unknown user offline is fine
	if err := r.MarkOffline(ctx, 999); err != nil {
		t.Fatalf("mark offline unknown user: %v", err)
	}
}

func TestMemoryRegistryConcurrent(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = r.MarkOnline(ctx, id)
			r.IsOnline(ctx, id)
			if id%2 == 0 {
				_ = r.MarkOffline(ctx, id)
			}
		}(i)
	}
	wg.Wait()

	for i := int64(0); i < 50; i++ {
		want := i%2 != 0
		if got := r.IsOnline(ctx, i); got != want {
			t.Errorf("user %d online = %v, want %v", i, got, want)
		}
	}
}
