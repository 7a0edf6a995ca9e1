package scans

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
	"github.com/bryanwahyu/decision-ledger/internal/domain/findings"
)

var (
	ErrUnknownKind = errors.New("unknown scan kind")
	ErrNoInput     = errors.New("scan needs text or at least one table")
)

// ID tipe untuk Scan
type ScanID string

// Kinds, one latest scan is kept per kind.
var Kinds = []ai.Kind{ai.KindOperational, ai.KindRevenue, ai.KindBrief}

// ParseKind validates a kind from a URL or flag.
func ParseKind(s string) (ai.Kind, error) {
	k := ai.Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Aggregate Root: Scan. A new scan of a kind replaces the previous one.
type Scan struct {
	ID            ScanID                 `json:"id"`
	Kind          ai.Kind                `json:"kind"`
	Mode          ai.Mode                `json:"mode"`
	CreatedAt     time.Time              `json:"created_at"`
	DurationMS    int64                  `json:"duration_ms"`
	Sources       []string               `json:"sources"`
	Raw           string                 `json:"raw"`
	Findings      []findings.Finding     `json:"findings"`
	Opportunities []findings.Opportunity `json:"opportunities"`
	Stats         findings.ParseStats    `json:"stats"`
	ArtifactURL   string                 `json:"artifact_url,omitempty"`
}

// Structured reports whether the scan produced records a view can render.
// When false, clients show Raw as plain text instead.
func (s *Scan) Structured() bool {
	switch s.Kind {
	case ai.KindOperational:
		return len(s.Findings) > 0
	case ai.KindRevenue:
		return len(s.Opportunities) > 0
	default:
		return strings.TrimSpace(s.Raw) != "" && !findings.IsUpstreamError(s.Raw)
	}
}

// FindingByID looks up a finding of an operational scan.
func (s *Scan) FindingByID(id int) (findings.Finding, bool) {
	for _, f := range s.Findings {
		if f.ID == id {
			return f, true
		}
	}
	return findings.Finding{}, false
}
