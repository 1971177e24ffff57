package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NumberSource supplies the next formatted document number for a named
// sequence. The ledger treats the result as an opaque string.
type NumberSource interface {
	Next(ctx context.Context, name string) (string, error)
}

// SequenceName is the sequence used for journal entry numbers.
const SequenceName = "journal_entry"

// SequenceRepository is a Postgres-backed NumberSource keeping one
// counter row per sequence name.
type SequenceRepository struct {
	pool   *pgxpool.Pool
	prefix map[string]string
}

// NewSequenceRepository constructs a SequenceRepository.
func NewSequenceRepository(pool *pgxpool.Pool) *SequenceRepository {
	return &SequenceRepository{
		pool:   pool,
		prefix: map[string]string{SequenceName: "JE"},
	}
}

// Next increments the named counter and returns the formatted number.
func (r *SequenceRepository) Next(ctx context.Context, name string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("ledger: sequence repository not initialised")
	}
	var value int64
	err := r.pool.QueryRow(ctx, `INSERT INTO sequences (name, last_value) VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET last_value = sequences.last_value + 1, updated_at = NOW()
RETURNING last_value`, name).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("ledger: next sequence %s: %w", name, err)
	}
	prefix, ok := r.prefix[name]
	if !ok {
		prefix = name
	}
	return fmt.Sprintf("%s-%06d", prefix, value), nil
}
