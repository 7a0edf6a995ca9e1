package findings

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrUnknownFinding is returned when a toggle targets an id the latest scan does not have.
var ErrUnknownFinding = errors.New("finding not found")

// Tier is the severity classification parsed from SEVERITY, "1" (low) to "3" (high).
type Tier string

const (
	Tier1 Tier = "1"
	Tier2 Tier = "2"
	Tier3 Tier = "3"

	DefaultTier = Tier2
)

// Rank returns the numeric weight of the tier, used for ordering.
func (t Tier) Rank() int {
	switch t {
	case Tier1:
		return 1
	case Tier3:
		return 3
	default:
		return 2
	}
}

// Finding is one operational-scan record.
type Finding struct {
	ID              int    `json:"id"`
	Pattern         string `json:"pattern"`
	Evidence        string `json:"evidence"`
	Recurrence      string `json:"recurrence"`
	Impact          string `json:"impact"`
	RootCause       string `json:"root_cause"`
	Fix             string `json:"fix"`
	Severity        string `json:"severity"`
	Confidence      string `json:"confidence"`
	ConfidenceLevel string `json:"confidence_level"`
	Assumptions     string `json:"assumptions"`
	Tier            Tier   `json:"tier"`
	MaxAmount       int64  `json:"max_amount"`
	DailyCost       int64  `json:"daily_cost"`
	Fingerprint     string `json:"fingerprint"`
}

// AmountKnown reports whether an amount was found in IMPACT.
// Zero means "unknown", not "nothing at stake".
func (f Finding) AmountKnown() bool { return f.MaxAmount > 0 }

// Opportunity is one revenue-scan record.
type Opportunity struct {
	ID              int    `json:"id"`
	Category        string `json:"category"`
	Pattern         string `json:"pattern"`
	Evidence        string `json:"evidence"`
	Potential       string `json:"potential"`
	Timeframe       string `json:"timeframe"`
	Action          string `json:"action"`
	Confidence      string `json:"confidence"`
	ConfidenceLevel string `json:"confidence_level"`
	Assumptions     string `json:"assumptions"`
	Tier            Tier   `json:"tier"`
	MaxAmount       int64  `json:"max_amount"`
	DailyCost       int64  `json:"daily_cost"`
	IsQuickWin      bool   `json:"is_quick_win"`
	Fingerprint     string `json:"fingerprint"`
}

// AmountKnown reports whether an amount was found in REVENUE POTENTIAL.
func (o Opportunity) AmountKnown() bool { return o.MaxAmount > 0 }

// Fingerprint hashes the normalized pattern text so a resolution can be
// checked against the finding it was made for.
func Fingerprint(pattern string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(pattern), " "))
	if norm == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}

// confidenceLevel picks HIGH, MODERATE or LOW off the front of a CONFIDENCE value.
func confidenceLevel(v string) string {
	fields := strings.FieldsFunc(strings.ToUpper(v), func(r rune) bool {
		return !(r >= 'A' && r <= 'Z')
	})
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "HIGH", "MODERATE", "LOW":
		return fields[0]
	case "MEDIUM":
		return "MODERATE"
	}
	return ""
}
