package timeout

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCallReturnsResult(t *testing.T) {
	v, err := Call(context.Background(), time.Second, func(context.Context) (int, error) {
		return 42, nil
	})
	if v != 42 || err != nil {
		t.Errorf("Call = %d, %v", v, err)
	}

	boom := errors.New("boom")
	if _, err := Call(context.Background(), time.Second, func(context.Context) (string, error) {
		return "", boom
	}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestCallBoundsCallThatIgnoresContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	_, err := Call(context.Background(), 20*time.Millisecond, func(context.Context) (string, error) {
		<-release
		return "late", nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Call took %v", elapsed)
	}
}

func TestCallHonorsParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	release := make(chan struct{})
	defer close(release)

	if _, err := Call(ctx, 0, func(context.Context) (int, error) {
		<-release
		return 1, nil
	}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want canceled", err)
	}
}
