package profile

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingStore struct {
	Store
	calls atomic.Int32
	gate  chan struct{}
}

func (c *countingStore) List(context.Context) ([]Summary, error) {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return []Summary{{ID: "a", FullName: Ptr("Ana")}}, nil
}

func TestDirectory_CachesAndCoalesces(t *testing.T) {
	cs := &countingStore{gate: make(chan struct{})}
	d := NewDirectory(cs, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := d.Users(context.Background()); err != nil {
				t.Errorf("Users: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(cs.gate)
	wg.Wait()

	if _, err := d.Users(context.Background()); err != nil {
		t.Fatalf("Users: %v", err)
	}
	if n := cs.calls.Load(); n != 1 {
		t.Fatalf("store calls = %d, want 1", n)
	}

	d.Invalidate()
	if _, err := d.Users(context.Background()); err != nil {
		t.Fatalf("Users: %v", err)
	}
	if n := cs.calls.Load(); n != 2 {
		t.Fatalf("store calls after invalidate = %d, want 2", n)
	}
}

type ctxStore struct {
	Store
	started chan struct{}
	gate    chan struct{}
}

func (c *ctxStore) List(ctx context.Context) ([]Summary, error) {
	close(c.started)
	<-c.gate
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Summary{{ID: "b", FullName: Ptr("Bia")}}, nil
}

func TestDirectory_CancelledLeaderDoesNotFailWaiters(t *testing.T) {
	cs := &ctxStore{started: make(chan struct{}), gate: make(chan struct{})}
	d := NewDirectory(cs, time.Minute)

	leader, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := d.Users(leader)
		leaderErr <- err
	}()
	<-cs.started

	type result struct {
		rows []Summary
		err  error
	}
	waiter := make(chan result, 1)
	go func() {
		rows, err := d.Users(context.Background())
		waiter <- result{rows, err}
	}()

	cancel()
	if err := <-leaderErr; err != context.Canceled {
		t.Fatalf("leader err = %v, want context.Canceled", err)
	}
	close(cs.gate)

	res := <-waiter
	if res.err != nil {
		t.Fatalf("waiter err = %v", res.err)
	}
	if len(res.rows) != 1 || res.rows[0].ID != "b" {
		t.Fatalf("waiter rows = %+v", res.rows)
	}
	if _, ok := d.cache.Get(directoryKey); !ok {
		t.Fatal("listing was not cached")
	}
}
