package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func fastBackoff(attempts int) *Backoff {
	return &Backoff{
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   1.5,
		MaxAttempts:  attempts,
	}
}

func TestBackoff_SuccessAfterRetries(t *testing.T) {
	var retried []int
	b := fastBackoff(10)
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		retried = append(retried, attempt)
	}

	calls := 0
	err := b.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt < 3 {
			return fmt.Errorf("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("OnRetry attempts = %v", retried)
	}
}

func TestValue(t *testing.T) {
	got, err := Value(context.Background(), fastBackoff(5), func(attempt int) (string, error) {
		if attempt == 1 {
			return "", fmt.Errorf("busy")
		}
		return fmt.Sprintf("conn-%d", attempt), nil
	})
	if err != nil || got != "conn-2" {
		t.Fatalf("Value = %q, %v", got, err)
	}
}

func TestBackoff_PermanentError(t *testing.T) {
	calls := 0
	fatal := errors.New("auth rejected")
	err := fastBackoff(10).Do(context.Background(), func(_ int) error {
		calls++
		return Permanent(fatal)
	})
	if !errors.Is(err, fatal) || IsPermanent(err) {
		t.Errorf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("permanent error should stop after 1 call, got %d", calls)
	}
}

func TestBackoff_MaxAttempts(t *testing.T) {
	tests := []struct {
		attempts int
		wantMsg  string
	}{
		{1, "always fails"},
		{3, "gave up after 3 attempts: always fails"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.attempts), func(t *testing.T) {
			calls := 0
			err := fastBackoff(tt.attempts).Do(context.Background(), func(_ int) error {
				calls++
				return fmt.Errorf("always fails")
			})
			if err == nil || err.Error() != tt.wantMsg {
				t.Fatalf("err = %v, want %q", err, tt.wantMsg)
			}
			if calls != tt.attempts {
				t.Errorf("expected %d calls, got %d", tt.attempts, calls)
			}
		})
	}
}

func TestBackoff_ContextCancelled(t *testing.T) {
	b := &Backoff{InitialDelay: 5 * time.Second, MaxAttempts: 100}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := b.Do(ctx, func(_ int) error { return fmt.Errorf("fail") })
	if !errors.Is(err, context.DeadlineExceeded) || !strings.Contains(err.Error(), "retry cancelled") {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation did not interrupt the wait")
	}
}

func TestForConnect(t *testing.T) {
	tests := []struct {
		retries  int
		attempts int
	}{
		{0, 1}, {2, 3}, {-4, 1},
	}
	for _, tt := range tests {
		b := ForConnect(tt.retries)
		if b.MaxAttempts != tt.attempts || !b.Jitter {
			t.Errorf("ForConnect(%d) = %+v", tt.retries, b)
		}
	}
}

func TestPermanent_Nil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"permanent", Permanent(fmt.Errorf("x")), true},
		{"wrapped permanent", fmt.Errorf("ssh: %w", Permanent(fmt.Errorf("x"))), true},
		{"not permanent", fmt.Errorf("x"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJitter_Range(t *testing.T) {
	d := 100 * time.Millisecond
	lower := time.Duration(float64(d) * 0.74)
	upper := time.Duration(float64(d) * 1.26)
	for i := 0; i < 100; i++ {
		if j := addJitter(d); j < lower || j > upper {
			t.Errorf("jitter %v out of expected range [%v, %v]", j, lower, upper)
		}
	}
}
