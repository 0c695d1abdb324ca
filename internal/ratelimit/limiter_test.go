package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_NilRedis_FailOpen(t *testing.T) {
	l := NewLimiter(nil)
	result, err := l.Check(context.Background(), "203.0.113.7", 50, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Allowed {
		t.Error("expected allowed when Redis is nil")
	}
	if result.Limit != 50 {
		t.Errorf("expected limit=50, got %d", result.Limit)
	}
	if result.Remaining != 49 {
		t.Errorf("expected remaining=49, got %d", result.Remaining)
	}
	if result.ResetAt.Before(time.Now()) {
		t.Error("expected ResetAt in the future")
	}
}

func TestResultFromCount(t *testing.T) {
	now := time.Now()
	window := time.Hour

	tests := []struct {
		name          string
		count         int64
		limit         int64
		wantAllowed   bool
		wantRemaining int64
	}{
		{"first call", 1, 50, true, 49},
		{"at quota", 50, 50, true, 0},
		{"first over quota", 51, 50, false, 0},
		{"deep over quota", 120, 50, false, 0},
		{"limit one allowed", 1, 1, true, 0},
		{"limit one denied", 2, 1, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := resultFromCount(tt.count, tt.limit, now, window)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("count=%d limit=%d: allowed=%v, want %v",
					tt.count, tt.limit, result.Allowed, tt.wantAllowed)
			}
			if result.Remaining != tt.wantRemaining {
				t.Errorf("count=%d limit=%d: remaining=%d, want %d",
					tt.count, tt.limit, result.Remaining, tt.wantRemaining)
			}
			if result.Limit != tt.limit {
				t.Errorf("expected limit echoed back, got %d", result.Limit)
			}
			if !result.ResetAt.Equal(now.Add(window)) {
				t.Errorf("expected ResetAt %v, got %v", now.Add(window), result.ResetAt)
			}
		})
	}
}

func TestLimiter_NilRedis_MultipleChecks(t *testing.T) {
	l := NewLimiter(nil)
	// Without Redis, every check passes (fail open)
	for i := 0; i < 100; i++ {
		result, _ := l.Check(context.Background(), "203.0.113.7", 10, time.Hour)
		if !result.Allowed {
			t.Fatalf("expected allowed on check %d", i)
		}
	}
}
