package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
	"github.com/bryanwahyu/decision-ledger/internal/domain/kv"
	domain "github.com/bryanwahyu/decision-ledger/internal/domain/scans"
)

// ScanRepository keeps the latest scan of each kind as one JSON value.
type ScanRepository struct {
	store kv.Store
}

func NewScanRepository(store kv.Store) *ScanRepository {
	return &ScanRepository{store: store}
}

func scanKey(kind ai.Kind) string { return "scan:" + string(kind) }

// Save replaces the stored scan of the same kind
func (r *ScanRepository) Save(ctx context.Context, s *domain.Scan) error {
	if s == nil {
		return errors.New("nil scan")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode scan %s: %w", s.ID, err)
	}
	return r.store.Set(ctx, scanKey(s.Kind), b)
}

// Latest returns (nil, nil) when nothing was saved for kind
func (r *ScanRepository) Latest(ctx context.Context, kind ai.Kind) (*domain.Scan, error) {
	b, err := r.store.Get(ctx, scanKey(kind))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s domain.Scan
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode %s scan: %w", kind, err)
	}
	return &s, nil
}
