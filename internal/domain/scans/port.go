package scans

import (
	"context"

	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
	"github.com/bryanwahyu/decision-ledger/internal/domain/findings"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, s *Scan) error
	// Latest returns (nil, nil) when no scan of kind exists yet.
	Latest(ctx context.Context, kind ai.Kind) (*Scan, error)
}

// ResolvedRepository persists the resolved-id set, independent of scans.
type ResolvedRepository interface {
	Load(ctx context.Context) (findings.ResolvedSet, error)
	Store(ctx context.Context, set findings.ResolvedSet) error
}

// ArtifactStore port (interface untuk penyimpanan artefak)
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
