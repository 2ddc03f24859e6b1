package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) CleanupExpired(ctx context.Context) (int64, error) {
	p.calls.Add(1)
	return 2, p.err
}

func TestStateCleanup_RunsOnInterval(t *testing.T) {
	p := &countingPurger{}
	w := NewStateCleanup(p, zap.NewNop(), 10*time.Millisecond)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()

	if p.calls.Load() < 2 {
		t.Errorf("expected at least 2 cleanup runs, got %d", p.calls.Load())
	}

	// No further runs after Stop.
	after := p.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if p.calls.Load() != after {
		t.Error("cleanup ran after Stop")
	}
}

func TestStateCleanup_ErrorDoesNotStopLoop(t *testing.T) {
	p := &countingPurger{err: errors.New("boom")}
	w := NewStateCleanup(p, zap.NewNop(), 5*time.Millisecond)
	w.Start()
	defer w.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if p.calls.Load() < 3 {
		t.Errorf("expected the loop to keep running after errors, got %d calls", p.calls.Load())
	}
}

func TestStateCleanup_StopTwice(t *testing.T) {
	w := NewStateCleanup(&countingPurger{}, zap.NewNop(), time.Hour)
	w.Start()
	w.Stop()
	w.Stop()
}
