package runner

import (
	"context"
	"testing"
	"time"
)

type fakeDrainer struct {
	drained chan struct{}
	block   time.Duration
}

func (f *fakeDrainer) Drain() error {
	if f.block > 0 {
		time.Sleep(f.block)
	}
	close(f.drained)
	return nil
}

func TestLifecycleRunnerDrainsOnCancel(t *testing.T) {
	drainer := &fakeDrainer{drained: make(chan struct{})}
	lr := NewLifecycleRunner(drainer, Hooks{}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lr.Run(ctx) }()

	for lr.State() != StateRunning {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop")
	}
	select {
	case <-drainer.drained:
	default:
		t.Fatalf("drainer not invoked")
	}
	if lr.State() != StateStopped {
		t.Fatalf("expected STOPPED, got %d", lr.State())
	}
}

func TestLifecycleRunnerDrainTimeout(t *testing.T) {
	drainer := &fakeDrainer{drained: make(chan struct{}), block: 500 * time.Millisecond}
	lr := NewLifecycleRunner(drainer, Hooks{}, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- lr.Run(context.Background()) }()
	for lr.State() != StateRunning {
		time.Sleep(time.Millisecond)
	}

	if err := lr.Stop(); err == nil {
		t.Fatalf("expected drain timeout error")
	}
	<-done
}

func TestLifecycleRunnerRejectsSecondRun(t *testing.T) {
	lr := NewLifecycleRunner(nil, Hooks{}, time.Second)
	go func() { _ = lr.Run(context.Background()) }()
	for lr.State() != StateRunning {
		time.Sleep(time.Millisecond)
	}
	if err := lr.Run(context.Background()); err == nil {
		t.Fatalf("expected error on second run")
	}
	_ = lr.Stop()
}
