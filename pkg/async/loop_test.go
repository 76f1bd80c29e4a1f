package async

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopOrdering(t *testing.T) {
	l := NewLoop()
	var order []string

	l.RequestFrame(func() {
		order = append(order, "frame")
		l.Microtask(func() { order = append(order, "frame-micro") })
	})
	l.Post(func() {
		order = append(order, "task1")
		l.Microtask(func() {
			order = append(order, "micro1")
			l.Microtask(func() { order = append(order, "micro2") })
		})
	})
	l.Post(func() { order = append(order, "task2") })

	n, err := l.RunUntilIdle()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 6 {
		t.Errorf("expected 6 callbacks, got %d", n)
	}

	want := []string{"task1", "micro1", "micro2", "task2", "frame", "frame-micro"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestLoopFramesRequestedDuringFrameRunNextRound(t *testing.T) {
	l := NewLoop()
	rounds := 0
	var request func()
	request = func() {
		l.RequestFrame(func() {
			rounds++
			if rounds < 3 {
				request()
			}
		})
	}
	request()

	l.RunUntilIdle()
	if rounds != 3 {
		t.Errorf("expected 3 frames, got %d", rounds)
	}
}

func TestLoopRecoversPanics(t *testing.T) {
	var recovered any
	l := NewLoop(WithPanicHandler(func(r any) { recovered = r }))

	ran := false
	l.Post(func() { panic("boom") })
	l.Post(func() { ran = true })
	l.RunUntilIdle()

	if recovered != "boom" {
		t.Errorf("expected panic value boom, got %v", recovered)
	}
	if !ran {
		t.Error("loop stopped after a panic")
	}
}

func TestLoopReentrancy(t *testing.T) {
	l := NewLoop()
	var inner error
	l.Post(func() { _, inner = l.RunUntilIdle() })
	l.RunUntilIdle()

	if !errors.Is(inner, ErrReentrantRun) {
		t.Errorf("expected ErrReentrantRun, got %v", inner)
	}
}

func TestLoopClose(t *testing.T) {
	l := NewLoop()
	l.Close()

	if err := l.Post(func() {}); !errors.Is(err, ErrLoopClosed) {
		t.Errorf("expected ErrLoopClosed, got %v", err)
	}
	select {
	case <-l.Context().Done():
	default:
		t.Error("loop context should be cancelled")
	}
}

func TestLoopRunServesPosts(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	got := make(chan int, 1)
	f := Go(l, func(ctx context.Context) (any, error) { return 21, nil })
	l.Post(func() {
		f.Await(l, func(v any, err error) { got <- v.(int) * 2 })
	})

	select {
	case v := <-got:
		if v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for the loop")
	}

	l.Close()
	if err := <-done; err != nil {
		t.Errorf("expected clean exit after Close, got %v", err)
	}
}
