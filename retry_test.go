package flowkit

import (
	"testing"
	"time"
)

func TestRetry_NonPositiveMaxAttemptsDefaultsToOne(t *testing.T) {
	for _, n := range []int{0, -5} {
		p := Retry(n).Policy()
		if p.MaxAttempts != 1 || p.Attempts() != 1 {
			t.Fatalf("Retry(%d): MaxAttempts=%d Attempts()=%d, want 1", n, p.MaxAttempts, p.Attempts())
		}
		if d := p.Delay(1); d != 0 {
			t.Fatalf("Retry(%d): Delay(1)=%v, want 0", n, d)
		}
	}
}

func TestRetry_ExponentialSchedule(t *testing.T) {
	p := Retry(5).
		WithExponentialBackoff(100*time.Millisecond, 0, 350*time.Millisecond).
		Policy()

	if p.BackoffMultiplier != 2.0 {
		t.Fatalf("expected default multiplier 2.0, got %v", p.BackoffMultiplier)
	}

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		350 * time.Millisecond, // capped
		350 * time.Millisecond,
	}
	for i, w := range want {
		if got := p.Delay(i + 1); got != w {
			t.Fatalf("Delay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestRetry_ExplicitMultiplierWithoutCap(t *testing.T) {
	p := Retry(4).
		WithExponentialBackoff(50*time.Millisecond, 3.0, 0).
		Policy()

	if got := p.Delay(3); got != 450*time.Millisecond {
		t.Fatalf("Delay(3) = %v, want 450ms", got)
	}
}

func TestRetry_WithConstantBackoff(t *testing.T) {
	delay := 250 * time.Millisecond
	p := Retry(5).WithConstantBackoff(delay).Policy()

	if p.Attempts() != 5 {
		t.Fatalf("expected 5 attempts, got %d", p.Attempts())
	}
	for retry := 1; retry < 5; retry++ {
		if got := p.Delay(retry); got != delay {
			t.Fatalf("Delay(%d) = %v, want %v", retry, got, delay)
		}
	}
}

func TestRetry_ImmediateClearsBackoff(t *testing.T) {
	p := Retry(7).
		WithExponentialBackoff(100*time.Millisecond, 2.0, 5*time.Second).
		Immediate().
		Policy()

	if p.MaxAttempts != 7 {
		t.Fatalf("expected MaxAttempts=7, got %d", p.MaxAttempts)
	}
	if p.InitialBackoff != 0 || p.MaxBackoff != 0 || p.BackoffMultiplier != 0 {
		t.Fatalf("expected zero backoff after Immediate, got %+v", p)
	}
	if d := p.Delay(3); d != 0 {
		t.Fatalf("Delay(3) = %v, want 0", d)
	}
}

func TestRetry_ScheduleListsEveryRetry(t *testing.T) {
	got := Retry(4).WithExponentialBackoff(100*time.Millisecond, 2, 300*time.Millisecond).Schedule()
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	if len(got) != len(want) {
		t.Fatalf("Schedule() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Schedule() = %v, want %v", got, want)
		}
	}
	if s := Retry(1).WithConstantBackoff(time.Second).Schedule(); len(s) != 0 {
		t.Fatalf("single attempt schedule = %v, want empty", s)
	}
}
