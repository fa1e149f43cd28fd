package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// pgStore keeps the queue in a single-row queue_state table as JSONB.
// The whole-row upsert gives the same read-everything/write-everything
// contract as the file store; row-level atomicity replaces the
// temp-file-and-rename publish. Useful when several jukebox hosts share a
// database, or when the operator already runs Postgres for the catalog.
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a Store backed by PostgreSQL.
func NewPgStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Read(ctx context.Context) (domain.Snapshot, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT items FROM queue_state WHERE id = 1`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read queue_state: %v", domain.ErrStoreUnavailable, err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: decode queue_state: %v", domain.ErrStoreUnavailable, err)
	}
	if snapshot == nil {
		snapshot = domain.Snapshot{}
	}
	return snapshot, nil
}

func (s *pgStore) Write(ctx context.Context, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot.Clone())
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO queue_state (id, items, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET items = $1, updated_at = now()`,
		data,
	)
	if err != nil {
		return fmt.Errorf("%w: write queue_state: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)
