package clock

import (
	"context"
	"testing"
	"time"
)

func TestNow_ReturnsCurrentTime(t *testing.T) {
	before := time.Now()
	result := Now()
	after := time.Now()

	if result.Before(before) || result.After(after) {
		t.Errorf("Now() returned %v, expected between %v and %v", result, before, after)
	}
}

func TestMockClock_Advance(t *testing.T) {
	mockTime := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mock := NewMockClock(mockTime)

	first := mock.Now()
	mock.Advance(time.Hour)
	second := mock.Now()

	if !second.Equal(mockTime.Add(time.Hour)) {
		t.Errorf("After Advance, Now() = %v, expected %v", second, mockTime.Add(time.Hour))
	}
	if !first.Equal(mockTime) {
		t.Errorf("Before Advance, Now() = %v, expected %v", first, mockTime)
	}
}

func TestMockClock_SinceUntil(t *testing.T) {
	mockTime := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mock := NewMockClock(mockTime)

	if got := mock.Since(mockTime.Add(-time.Hour)); got != time.Hour {
		t.Errorf("Since() = %v, expected 1h", got)
	}
	if got := mock.Until(mockTime.Add(time.Hour)); got != time.Hour {
		t.Errorf("Until() = %v, expected 1h", got)
	}
}

func TestMockClock_Sleep(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mock := NewMockClock(start)

	var hooked []time.Duration
	mock.OnSleep = func(d time.Duration) { hooked = append(hooked, d) }

	ctx := context.Background()
	if err := mock.Sleep(ctx, 5*time.Second); err != nil {
		t.Fatalf("Sleep returned %v", err)
	}
	if err := mock.Sleep(ctx, 90*time.Second); err != nil {
		t.Fatalf("Sleep returned %v", err)
	}

	if got := mock.Now(); !got.Equal(start.Add(95 * time.Second)) {
		t.Errorf("Now() after sleeps = %v", got)
	}
	sleeps := mock.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != 5*time.Second || sleeps[1] != 90*time.Second {
		t.Errorf("Sleeps() = %v", sleeps)
	}
	if len(hooked) != 2 {
		t.Errorf("OnSleep called %d times, want 2", len(hooked))
	}
}

func TestMockClock_SleepCancelled(t *testing.T) {
	mock := NewMockClock(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := mock.Sleep(ctx, time.Second); err != context.Canceled {
		t.Errorf("Sleep on cancelled ctx = %v, want context.Canceled", err)
	}
	if len(mock.Sleeps()) != 0 {
		t.Error("cancelled Sleep should not be recorded")
	}
}

func TestRealClock_SleepCancelled(t *testing.T) {
	c := &RealClock{}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := c.Sleep(ctx, time.Minute)
	if err != context.Canceled {
		t.Errorf("Sleep = %v, want context.Canceled", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Sleep did not return promptly on cancellation")
	}
}

func TestRealClock_SleepElapses(t *testing.T) {
	c := &RealClock{}
	if err := c.Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep = %v, want nil", err)
	}
}
