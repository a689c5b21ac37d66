package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			calls:    5,
			wantPass: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("ws-test") {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("passed = %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	if !rl.Allow("ws-1") {
		t.Error("first request for ws-1 should pass")
	}
	if rl.Allow("ws-1") {
		t.Error("second request for ws-1 should be limited")
	}
	if !rl.Allow("ws-2") {
		t.Error("first request for ws-2 should pass despite ws-1 being limited")
	}
}

func TestKeyedRateLimiter_Wait(t *testing.T) {
	rl := New(100, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Burst token plus one refill should both complete well within the timeout.
	if err := rl.Wait(ctx, "ws-1"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	if err := rl.Wait(ctx, "ws-1"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
}
