package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/decision-ledger/internal/domain/kv"
)

type KVRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db, now: time.Now}
}

// Get returns kv.ErrNotFound for a missing key
func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT v FROM ledger_kv WHERE k=? LIMIT 1;`
	var v []byte
	if err := r.db.QueryRowContext(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("mysql get %q: %w", key, err)
	}
	return v, nil
}

// Set upserts the value
func (r *KVRepository) Set(ctx context.Context, key string, value []byte) error {
	const q = `
INSERT INTO ledger_kv (k, v, updated_at)
VALUES (?,?,?)
ON DUPLICATE KEY UPDATE
 v=VALUES(v), updated_at=VALUES(updated_at);
`
	if value == nil {
		value = []byte{}
	}
	if _, err := r.db.ExecContext(ctx, q, key, value, r.now().UTC()); err != nil {
		return fmt.Errorf("mysql set %q: %w", key, err)
	}
	return nil
}

// Delete is a no-op for a missing key
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM ledger_kv WHERE k=?;`
	if _, err := r.db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("mysql delete %q: %w", key, err)
	}
	return nil
}
