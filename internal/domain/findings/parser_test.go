package findings

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScan = `SCAN SUMMARY
Three patterns stood out in the receivables ledger.

FINDING 1
PATTERN: Invoices aging past 90 days
EVIDENCE: 42 invoices in the AR sheet are older than 90 days
RECURRENCE: Every month since January
IMPACT: RM 180,000 - RM 320,000 tied up in receivables
ROOT CAUSE: No owner for collections follow-up
FIX: Assign a collections lead and weekly review
SEVERITY: Tier 3 - cash is at risk
CONFIDENCE: HIGH — figures come straight from the ledger
ASSUMPTIONS: Aging buckets are accurate

FINDING 2
PATTERN: Duplicate vendor payments
EVIDENCE: 7 payments share invoice numbers
IMPACT: About 45,000
ROOT CAUSE: Manual entry
FIX: Enable duplicate detection
CONFIDENCE: Moderate - sample only

FINDING 3
PATTERN: Overtime spikes at month end
IMPACT: Unknown
SEVERITY: Tier 1
`

func TestParseFindingsScenarioSingle(t *testing.T) {
	in := "FINDING 1\nPATTERN: Invoices aging\nIMPACT: RM 180,000 - RM 320,000\nSEVERITY: Tier 1\n"

	got := ParseFindings(in)
	require.Len(t, got, 1)
	f := got[0]
	assert.Equal(t, 1, f.ID)
	assert.Equal(t, "Invoices aging", f.Pattern)
	assert.Equal(t, int64(320000), f.MaxAmount)
	assert.Equal(t, int64(10667), f.DailyCost)
	assert.Equal(t, Tier1, f.Tier)
	assert.Equal(t, "", f.Evidence)
	assert.Equal(t, "", f.Assumptions)
	assert.Equal(t, Fingerprint("Invoices aging"), f.Fingerprint)
}

func TestParseFindingsUpstreamError(t *testing.T) {
	got, stats := ParseFindingsReport("Error: request timed out after 30000 ms")
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, ParseStats{}, stats)

	assert.Empty(t, ParseFindings("   Error\nFINDING 1\nPATTERN: should not parse"))
}

func TestParseFindingsSample(t *testing.T) {
	got, stats := ParseFindingsReport(sampleScan)
	require.Len(t, got, 3)

	assert.Equal(t, 4, stats.Segments)
	assert.Equal(t, 1, stats.Skipped, "summary preamble is skipped")
	assert.Equal(t, 0, stats.Dropped)
	assert.False(t, stats.Recovered)

	first := got[0]
	assert.Equal(t, "42 invoices in the AR sheet are older than 90 days", first.Evidence)
	assert.Equal(t, "Every month since January", first.Recurrence)
	assert.Equal(t, "No owner for collections follow-up", first.RootCause)
	assert.Equal(t, "Assign a collections lead and weekly review", first.Fix)
	assert.Equal(t, Tier3, first.Tier)
	assert.Equal(t, "HIGH", first.ConfidenceLevel)
	assert.Equal(t, "Aging buckets are accurate", first.Assumptions)

	second := got[1]
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, DefaultTier, second.Tier, "missing SEVERITY defaults")
	assert.Equal(t, int64(45000), second.MaxAmount)
	assert.Equal(t, int64(1500), second.DailyCost)
	assert.Equal(t, "MODERATE", second.ConfidenceLevel)

	third := got[2]
	assert.Equal(t, Tier1, third.Tier)
	assert.Equal(t, int64(0), third.MaxAmount)
	assert.Equal(t, int64(0), third.DailyCost)
	assert.False(t, third.AmountKnown())
}

func TestParseFindingsDropsEmptyPattern(t *testing.T) {
	in := "FINDING 1\nPATTERN: Kept\n\nFINDING 2\nPATTERN:\nEVIDENCE: orphan evidence\n\nFINDING 3\nPATTERN: Also kept\n"

	got, stats := ParseFindingsReport(in)
	require.Len(t, got, 2)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, []int{1, 3}, []int{got[0].ID, got[1].ID})
	for _, f := range got {
		assert.NotEmpty(t, f.Pattern)
	}
}

func TestParseFindingsPatternOnly(t *testing.T) {
	got := ParseFindings("finding 7\npattern: Nothing else given")
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].ID)
	assert.Equal(t, DefaultTier, got[0].Tier)
	assert.Equal(t, int64(0), got[0].MaxAmount)
}

func TestParseFindingsIDFallback(t *testing.T) {
	in := "FINDING 1\nPATTERN: first\nFINDING 99999999999999999999999\nPATTERN: overflowing header\n"

	got := ParseFindings(in)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 2, got[1].ID, "unparsable number falls back to position")
}

func TestParseFindingsOutOfOrderFields(t *testing.T) {
	in := "FINDING 1\nSEVERITY: Tier 3\nFIX: Rotate staff\nIMPACT: 12,500 per month\nPATTERN: Understaffed night shift\n"

	got := ParseFindings(in)
	require.Len(t, got, 1)
	assert.Equal(t, "Understaffed night shift", got[0].Pattern)
	assert.Equal(t, Tier3, got[0].Tier)
	assert.Equal(t, int64(12500), got[0].MaxAmount)
}

func TestParseFindingsNoRecords(t *testing.T) {
	for _, in := range []string{"", "Nothing structured here at all.", "FINDINGS are below\nPATTERN: x"} {
		got := ParseFindings(in)
		assert.NotNil(t, got)
		assert.Empty(t, got, in)
	}
}

func TestParseFindingsIdempotent(t *testing.T) {
	a := ParseFindings(sampleScan)
	b := ParseFindings(sampleScan)
	assert.Equal(t, a, b)
}

func TestParseFindingsDailyCostProperty(t *testing.T) {
	for _, m := range []int64{1000, 1001, 29999, 45000, 320000, 1234567} {
		in := fmt.Sprintf("FINDING 1\nPATTERN: p\nIMPACT: %d\n", m)
		got := ParseFindings(in)
		require.Len(t, got, 1)
		assert.Equal(t, DailyCost(m), got[0].DailyCost)
		assert.Equal(t, m, got[0].MaxAmount)
	}
}

func TestParseFindingsAdmissionInvariant(t *testing.T) {
	inputs := []string{
		sampleScan,
		strings.Repeat("FINDING 1\nPATTERN:\n", 5),
		"FINDING 1 FINDING 2 FINDING 3",
		"FINDING 1\nPATTERN: \t \nFINDING 2\npattern: ok",
	}
	for _, in := range inputs {
		for _, f := range ParseFindings(in) {
			assert.NotEmpty(t, f.Pattern)
			assert.NotEmpty(t, f.Tier)
		}
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
	}{
		{"Tier 1", Tier1},
		{"tier2 (moderate)", Tier2},
		{"Critical, Tier 3", Tier3},
		{"TIER   3", Tier3},
		{"Tier 5", DefaultTier},
		{"High", DefaultTier},
		{"", DefaultTier},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseTier(tc.in))
		})
	}
}

func TestParseOpportunitiesScenario(t *testing.T) {
	in := "OPPORTUNITY 1\nPATTERN: Unused API data\nREVENUE POTENTIAL: RM 50,000 - RM 120,000\nTIMEFRAME: Quick Win (0-90 days)\n"

	got := ParseOpportunities(in)
	require.Len(t, got, 1)
	o := got[0]
	assert.Equal(t, 1, o.ID)
	assert.Equal(t, "Unused API data", o.Pattern)
	assert.Equal(t, int64(120000), o.MaxAmount)
	assert.Equal(t, int64(4000), o.DailyCost)
	assert.True(t, o.IsQuickWin)
	assert.Equal(t, DefaultTier, o.Tier)
}

func TestParseOpportunitiesFields(t *testing.T) {
	in := `Intro text about revenue.
OPPORTUNITY 1
CATEGORY: Pricing
PATTERN: Legacy customers on 2019 price list
EVIDENCE: 118 accounts
REVENUE POTENTIAL: 240,000 per year
TIMEFRAME: 3-6 months
ACTION: Announce a price review
CONFIDENCE: LOW - churn risk unknown
ASSUMPTIONS: 10% churn

OPPORTUNITY 2
CATEGORY: Upsell
PATTERN:
OPPORTUNITY 3
PATTERN: Bundle support plans
TIMEFRAME: 0–90 days
`
	got, stats := ParseOpportunitiesReport(in)
	require.Len(t, got, 2)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Dropped)

	o := got[0]
	assert.Equal(t, "Pricing", o.Category)
	assert.Equal(t, "118 accounts", o.Evidence)
	assert.Equal(t, "240,000 per year", o.Potential)
	assert.Equal(t, "3-6 months", o.Timeframe)
	assert.Equal(t, "Announce a price review", o.Action)
	assert.Equal(t, "LOW", o.ConfidenceLevel)
	assert.Equal(t, "10% churn", o.Assumptions)
	assert.Equal(t, int64(240000), o.MaxAmount)
	assert.False(t, o.IsQuickWin)

	assert.Equal(t, 3, got[1].ID)
	assert.True(t, got[1].IsQuickWin)
}

func TestParseOpportunitiesUpstreamError(t *testing.T) {
	assert.Empty(t, ParseOpportunities("Error: 429 quota exceeded, retry in 20000ms"))
}

func TestIsQuickWin(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Quick Win (0-90 days)", true},
		{"quick win", true},
		{"QuickWin", true},
		{"0–90 days", true},
		{"0 - 90 days", true},
		{"Medium term (3-6 months)", false},
		{"90-180 days", false},
		{"10-90 days", false},
		{"", false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, IsQuickWin(tc.in))
		})
	}
}
