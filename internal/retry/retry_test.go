/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/hortator-ai/cellforge/internal/cferrors"
)

func TestDoRetriesOnlyTransient(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{"transient retried to exhaustion", cferrors.Transient(nil, "boom"), 3},
		{"validation fails fast", cferrors.Validation("bad spec"), 1},
		{"unclassified fails fast", errors.New("plain"), 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			strategy := Strategy{MaxRetries: 2, Backoff: Constant, BaseDelayMs: 1}
			err := Do(context.Background(), strategy, func(ctx context.Context) error {
				calls++
				return tc.err
			})
			if err == nil {
				t.Fatalf("expected error")
			}
			if calls != tc.wantCalls {
				t.Fatalf("calls = %d, want %d", calls, tc.wantCalls)
			}
		})
	}
}

func TestDoSucceedsWithoutExhausting(t *testing.T) {
	calls := 0
	strategy := Strategy{MaxRetries: 5, Backoff: Exponential, BaseDelayMs: 1, MaxDelayMs: 10}
	err := Do(context.Background(), strategy, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return cferrors.Transient(nil, "retry me")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDelayMonotonic(t *testing.T) {
	strategy := Strategy{Backoff: Exponential, BaseDelayMs: 100, MaxDelayMs: 1000}
	prev := Delay(strategy, 0)
	for i := 1; i < 6; i++ {
		d := Delay(strategy, i)
		if d < prev {
			t.Fatalf("delay decreased at attempt %d: %v < %v", i, d, prev)
		}
		prev = d
	}
	if prev > 1000*1000*1000 { // 1000ms in ns, sanity cap check
		t.Fatalf("delay exceeded cap: %v", prev)
	}
}

func TestDelayLinear(t *testing.T) {
	strategy := Strategy{Backoff: Linear, BaseDelayMs: 10, MaxDelayMs: 25}
	if got, want := Delay(strategy, 0).Milliseconds(), int64(10); got != want {
		t.Fatalf("attempt 0 = %dms, want %dms", got, want)
	}
	if got, want := Delay(strategy, 1).Milliseconds(), int64(20); got != want {
		t.Fatalf("attempt 1 = %dms, want %dms", got, want)
	}
	if got, want := Delay(strategy, 5).Milliseconds(), int64(25); got != want {
		t.Fatalf("attempt 5 (capped) = %dms, want %dms", got, want)
	}
}
