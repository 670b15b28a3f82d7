package task_test

import (
	"context"
	"errors"
	"testing"

	"github.com/forge-engine/forge/internal/task"
)

func TestRunResolves(t *testing.T) {
	pool := task.NewPool(context.Background(), 4)
	a := task.Run(pool, func() (int, error) { return 42, nil })
	v, err := a.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
}

func TestThenChainsAfterPrerequisite(t *testing.T) {
	pool := task.NewPool(context.Background(), 4)
	a := task.Run(pool, func() (int, error) { return 10, nil })
	b := task.Then(pool, a, func(v int) (string, error) {
		if v != 10 {
			t.Fatalf("got %d, want 10", v)
		}
		return "ten", nil
	})
	s, err := b.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if s != "ten" {
		t.Fatalf("got %q, want %q", s, "ten")
	}
}

func TestThenShortCircuitsOnPrerequisiteFailure(t *testing.T) {
	wantErr := errors.New("read failed")
	pool := task.NewPool(context.Background(), 4)
	a := task.Run(pool, func() (int, error) { return 0, wantErr })
	called := false
	b := task.Then(pool, a, func(v int) (int, error) {
		called = true
		return v, nil
	})
	_, err := b.Wait()
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
	if called {
		t.Fatal("Then: fn was called despite prerequisite failure")
	}
}

func TestCompletedIsImmediatelyResolved(t *testing.T) {
	a := task.Completed(7, nil)
	select {
	case <-a.Done():
	default:
		t.Fatal("Completed: Done channel should already be closed")
	}
	v, err := a.Wait()
	if err != nil || v != 7 {
		t.Fatalf("got (%d, %v), want (7, nil)", v, err)
	}
}
