// Package semantic provides embedding-based similarity search over the
// bills table, guarded by the bounded retry policy for transient
// database failures.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/civicworks/billchat/internal/retry"
)

// Retryable Postgres error classes: statement timeout, serialization
// failure, deadlock detected. Everything else propagates immediately.
const (
	codeStatementTimeout     = "57014"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// IsTransient classifies a database error as retryable.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeStatementTimeout, codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// BillMatch is one ranked similarity hit.
type BillMatch struct {
	PackageID  string  `json:"packageId"`
	Title      string  `json:"title"`
	DateIssued string  `json:"dateIssued"`
	Congress   string  `json:"congress"`
	DocClass   string  `json:"docClass"`
	Similarity float64 `json:"similarity"`
}

// Embedder turns a query string into a vector. Satisfied by llm.Client.
type Embedder interface {
	Embed(ctx context.Context, model, input string) ([]float32, error)
}

// Store runs similarity searches against the bills table.
type Store struct {
	pool           *pgxpool.Pool
	embedder       Embedder
	embeddingModel string
	matchThreshold float64
	matchCount     int
	policy         retry.Policy
}

type Options struct {
	EmbeddingModel string
	MatchThreshold float64
	MatchCount     int
	Policy         retry.Policy
	OnRetry        func()
}

func NewStore(pool *pgxpool.Pool, embedder Embedder, opts Options) *Store {
	if opts.MatchThreshold == 0 {
		opts.MatchThreshold = 0.7
	}
	if opts.MatchCount == 0 {
		opts.MatchCount = 10
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = "text-embedding-ada-002"
	}
	policy := opts.Policy
	policy.OnRetry = opts.OnRetry
	return &Store{
		pool:           pool,
		embedder:       embedder,
		embeddingModel: opts.EmbeddingModel,
		matchThreshold: opts.MatchThreshold,
		matchCount:     opts.MatchCount,
		policy:         policy,
	}
}

// Search embeds the query and ranks bills issued within [startDate, endDate]
// by cosine similarity. The database call is retried under the store's
// policy on transient error classes.
func (s *Store) Search(ctx context.Context, query, startDate, endDate string) ([]BillMatch, error) {
	start := time.Now()

	embedding, err := s.embedder.Embed(ctx, s.embeddingModel, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := retry.Do(ctx, s.policy, IsTransient, func(ctx context.Context) ([]BillMatch, error) {
		return s.matchBills(ctx, embedding, startDate, endDate)
	})
	if err != nil {
		return nil, fmt.Errorf("match bills: %w", err)
	}

	slog.Debug("semantic search complete",
		"query", query,
		"matches", len(matches),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return matches, nil
}

func (s *Store) matchBills(ctx context.Context, embedding []float32, startDate, endDate string) ([]BillMatch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT package_id, title, date_issued, congress, doc_class, similarity
		FROM match_bills_by_date($1, $2, $3, $4, $5)
	`, pgvector.NewVector(embedding), s.matchThreshold, s.matchCount, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []BillMatch
	for rows.Next() {
		var m BillMatch
		var dateIssued time.Time
		if err := rows.Scan(&m.PackageID, &m.Title, &dateIssued, &m.Congress, &m.DocClass, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		m.DateIssued = dateIssued.Format("2006-01-02")
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return matches, nil
}
