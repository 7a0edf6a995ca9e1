package scans

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
	"github.com/bryanwahyu/decision-ledger/internal/domain/findings"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Revenue ")
	require.NoError(t, err)
	assert.Equal(t, ai.KindRevenue, k)

	_, err = ParseKind("weekly")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestScanStructured(t *testing.T) {
	tests := []struct {
		name string
		scan Scan
		want bool
	}{
		{"operational with findings", Scan{Kind: ai.KindOperational, Findings: []findings.Finding{{ID: 1, Pattern: "p"}}}, true},
		{"operational without findings", Scan{Kind: ai.KindOperational, Raw: "prose only"}, false},
		{"revenue with opportunities", Scan{Kind: ai.KindRevenue, Opportunities: []findings.Opportunity{{ID: 1}}}, true},
		{"brief with text", Scan{Kind: ai.KindBrief, Raw: "Top three decisions..."}, true},
		{"brief with error payload", Scan{Kind: ai.KindBrief, Raw: "Error: timeout"}, false},
		{"brief blank", Scan{Kind: ai.KindBrief, Raw: "  "}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.scan.Structured())
		})
	}
}

func TestFindingByID(t *testing.T) {
	s := Scan{Findings: []findings.Finding{{ID: 2, Pattern: "b"}, {ID: 5, Pattern: "e"}}}
	f, ok := s.FindingByID(5)
	require.True(t, ok)
	assert.Equal(t, "e", f.Pattern)
	_, ok = s.FindingByID(1)
	assert.False(t, ok)
}
