package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bryanwahyu/decision-ledger/internal/domain/findings"
	"github.com/bryanwahyu/decision-ledger/internal/domain/kv"
)

const resolvedKey = "resolved_ids"

// ResolvedRepository persists the resolved set under its own key, so a new
// scan never touches it.
type ResolvedRepository struct {
	store kv.Store
}

func NewResolvedRepository(store kv.Store) *ResolvedRepository {
	return &ResolvedRepository{store: store}
}

func (r *ResolvedRepository) Load(ctx context.Context) (findings.ResolvedSet, error) {
	b, err := r.store.Get(ctx, resolvedKey)
	if errors.Is(err, kv.ErrNotFound) {
		return findings.NewResolvedSet(), nil
	}
	if err != nil {
		return findings.ResolvedSet{}, err
	}
	var set findings.ResolvedSet
	if err := json.Unmarshal(b, &set); err != nil {
		return findings.ResolvedSet{}, fmt.Errorf("decode resolved set: %w", err)
	}
	return set, nil
}

// Store writes the whole set; an empty set deletes the key.
func (r *ResolvedRepository) Store(ctx context.Context, set findings.ResolvedSet) error {
	if set.Len() == 0 {
		return r.store.Delete(ctx, resolvedKey)
	}
	b, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode resolved set: %w", err)
	}
	return r.store.Set(ctx, resolvedKey, b)
}
