package semantic

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"statement timeout", &pgconn.PgError{Code: "57014"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, true},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("connection refused"), false},
		{"nil", nil, false},
		{"wrapped pg error", fmt.Errorf("query: %w", &pgconn.PgError{Code: "57014"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewStore_Defaults(t *testing.T) {
	s := NewStore(nil, nil, Options{})
	if s.matchThreshold != 0.7 {
		t.Errorf("expected default threshold 0.7, got %v", s.matchThreshold)
	}
	if s.matchCount != 10 {
		t.Errorf("expected default count 10, got %d", s.matchCount)
	}
	if s.embeddingModel != "text-embedding-ada-002" {
		t.Errorf("expected default embedding model, got %s", s.embeddingModel)
	}
}
