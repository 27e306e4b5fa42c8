package sqlite

import (
	"context"
	"fmt"

	"github.com/warp/census-engine/census"
)

// DryRun runs fn against a single transaction that is always rolled back.
// Row-level WithTx calls inside fn become savepoints on that transaction,
// so a failing row still undoes only its own writes.
func (s *Store) DryRun(ctx context.Context, fn func(census.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	return fn(&savepointStore{queries: &queries{db: sqlTx}})
}

// savepointStore nests row transactions inside an open dry-run transaction.
type savepointStore struct {
	*queries
	seq int
}

var _ census.TxStore = (*savepointStore)(nil)

func (s *savepointStore) WithTx(ctx context.Context, fn func(census.Store) error) error {
	s.seq++
	name := fmt.Sprintf("row_%d", s.seq)
	if _, err := s.db.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to open savepoint: %w", err)
	}

	if err := fn(s.queries); err != nil {
		// ROLLBACK TO leaves the savepoint on the stack; RELEASE pops it.
		if _, rbErr := s.db.ExecContext(ctx, "ROLLBACK TO "+name); rbErr != nil {
			return fmt.Errorf("%w (rollback to savepoint: %v)", err, rbErr)
		}
		s.db.ExecContext(ctx, "RELEASE "+name)
		return err
	}

	if _, err := s.db.ExecContext(ctx, "RELEASE "+name); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}
