package eventloop

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopRunsTasksInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := NewLoop(8)
	go loop.Run(ctx)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}

	if err := loop.Call(ctx, func() {}); err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got = %v", got)
		}
	}
	if len(got) != 5 {
		t.Fatalf("got = %v", got)
	}
}

func TestLoopSurvivesPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := NewLoop(4)
	go loop.Run(ctx)

	loop.Post(func() { panic("boom") })
	ran := false
	if err := loop.Call(ctx, func() { ran = true }); err != nil || !ran {
		t.Fatalf("ran = %v err = %v", ran, err)
	}
}

func TestCallAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop(1)
	stopped := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	callCtx, callCancel := context.WithTimeout(context.Background(), time.Second)
	defer callCancel()
	if err := loop.Call(callCtx, func() {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}

	// Post after stop must not block
	loop.Post(func() {})
	loop.Post(func() {})
}
