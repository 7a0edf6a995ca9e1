package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
	domain "github.com/bryanwahyu/decision-ledger/internal/domain/scans"
)

// DefaultMaxRows caps rows rendered per table when the caller passes 0.
const DefaultMaxRows = 200

const operationalSystem = `You are an operations analyst reviewing internal business data for an executive.
Find recurring operational patterns that cost money or create risk. Report at most 8 findings.

Output plain text only, no markdown, no tables. Use exactly this template for every finding,
one field per line, labels in uppercase followed by a colon:

FINDING <n>
PATTERN: <one-line description of the recurring pattern>
EVIDENCE: <specific rows, counts or values from the data>
RECURRENCE: <how often it happens>
IMPACT: <estimated monthly cost, with currency figures, e.g. RM 180,000 - RM 320,000>
ROOT CAUSE: <most likely cause>
FIX: <concrete corrective action>
SEVERITY: <Tier 1, Tier 2 or Tier 3, where Tier 3 is the most severe>
CONFIDENCE: <HIGH, MODERATE or LOW> — <short reasoning>
ASSUMPTIONS: <assumptions behind the estimate>

Number findings from 1. You may add a short SCAN SUMMARY before the first finding.`

const revenueSystem = `You are a revenue strategist reviewing internal business data for an executive.
Find untapped revenue opportunities supported by the data. Report at most 8 opportunities.

Output plain text only, no markdown, no tables. Use exactly this template for every opportunity,
one field per line, labels in uppercase followed by a colon:

OPPORTUNITY <n>
CATEGORY: <pricing, upsell, retention, new product, data monetisation or other>
PATTERN: <one-line description of the opportunity>
EVIDENCE: <specific rows, counts or values from the data>
REVENUE POTENTIAL: <estimated annual revenue, with currency figures, e.g. RM 50,000 - RM 120,000>
TIMEFRAME: <Quick Win (0-90 days), Medium (3-6 months) or Long term (6+ months)>
ACTION: <first concrete step>
CONFIDENCE: <HIGH, MODERATE or LOW> — <short reasoning>
ASSUMPTIONS: <assumptions behind the estimate>

Number opportunities from 1.`

const briefSystem = `You are the chief of staff preparing a one-page executive brief from internal business data.
Write plain text with these sections, each heading on its own line in uppercase:
SITUATION, TOP DECISIONS NEEDED, RISKS, NEXT 30 DAYS.
Be specific, cite figures from the data, and keep it under 400 words.`

// System returns the instructions for kind.
func System(kind ai.Kind) (string, error) {
	switch kind {
	case ai.KindOperational:
		return operationalSystem, nil
	case ai.KindRevenue:
		return revenueSystem, nil
	case ai.KindBrief:
		return briefSystem, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
}

// User renders the data the model should analyse: free-text notes first,
// then each table as pipe-separated rows truncated at maxRows.
func User(kind ai.Kind, tables []domain.Table, notes string, maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Run the %s scan on the data below.\n", kind)
	if n := strings.TrimSpace(notes); n != "" {
		b.WriteString("\nCONTEXT NOTES\n")
		b.WriteString(n)
		b.WriteString("\n")
	}
	for _, t := range tables {
		writeTable(&b, t, maxRows)
	}
	return b.String()
}

func writeTable(b *strings.Builder, t domain.Table, maxRows int) {
	name := t.Name
	if name == "" {
		name = "sheet"
	}
	fmt.Fprintf(b, "\nTABLE %s (%d rows)\n", name, len(t.Rows))
	b.WriteString(joinCells(t.Headers))
	b.WriteString("\n")
	for i, row := range t.Rows {
		if i == maxRows {
			fmt.Fprintf(b, "... %d more rows not shown\n", len(t.Rows)-maxRows)
			break
		}
		b.WriteString(joinCells(row))
		b.WriteString("\n")
	}
}

func joinCells(cells []string) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "\n", " ")
		out[i] = strings.ReplaceAll(c, "|", "/")
	}
	return strings.Join(out, " | ")
}
