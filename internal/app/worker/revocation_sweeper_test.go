package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 1
}

func TestRevocationSweeperRunsUntilCancelled(t *testing.T) {
	store := &countingSweeper{}
	sweeper := NewRevocationSweeper(store, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestNewRevocationSweeperDefaultsInterval(t *testing.T) {
	s := NewRevocationSweeper(&countingSweeper{}, 0)
	assert.Equal(t, time.Minute, s.interval)
}
