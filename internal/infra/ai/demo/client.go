// Package demo answers completions with canned, well-formed scan output so
// the dashboard works without a provider key.
package demo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
)

const operational = `SCAN SUMMARY
Demo data: three recurring patterns across receivables, payables and staffing.

FINDING 1
PATTERN: Invoices aging past 90 days without follow-up
EVIDENCE: 42 of 310 open invoices in the AR sheet are older than 90 days
RECURRENCE: Every month since January
IMPACT: RM 180,000 - RM 320,000 tied up in receivables
ROOT CAUSE: No named owner for collections after the first reminder
FIX: Assign a collections lead and hold a weekly aging review
SEVERITY: Tier 3
CONFIDENCE: HIGH — figures come straight from the ledger
ASSUMPTIONS: Aging buckets in the export are accurate

FINDING 2
PATTERN: Duplicate vendor payments
EVIDENCE: 7 payments in Q1 share an invoice number with an earlier payment
RECURRENCE: Roughly twice a month
IMPACT: About RM 45,000 paid twice this year
ROOT CAUSE: Manual entry with no duplicate check in the payment run
FIX: Turn on duplicate invoice detection before each payment batch
SEVERITY: Tier 2
CONFIDENCE: MODERATE — based on a sample of three months
ASSUMPTIONS: Matching invoice numbers are true duplicates

FINDING 3
PATTERN: Overtime spikes in the last week of each month
EVIDENCE: Overtime hours double in weeks 4 and 5 compared with weeks 1 to 3
RECURRENCE: Monthly
IMPACT: RM 12,000 per month in overtime premiums
ROOT CAUSE: Month-end close work is not spread across the month
FIX: Move reconciliations to a weekly cadence
SEVERITY: Tier 1
CONFIDENCE: LOW — timesheets are incomplete for two teams
ASSUMPTIONS: Overtime rate of 1.5x across all staff
`

const revenue = `OPPORTUNITY 1
CATEGORY: Data monetisation
PATTERN: Usage data from the partner API is collected but never sold
EVIDENCE: 1.2 million API calls a month are logged with region and product fields
REVENUE POTENTIAL: RM 50,000 - RM 120,000 per year
TIMEFRAME: Quick Win (0-90 days)
ACTION: Package an anonymised monthly trends report for existing partners
CONFIDENCE: MODERATE — two partners have asked for similar data
ASSUMPTIONS: Partners pay RM 2,000 per month per report

OPPORTUNITY 2
CATEGORY: Pricing
PATTERN: Legacy customers still on the 2019 price list
EVIDENCE: 118 active accounts billed at rates 15% below the current list
REVENUE POTENTIAL: RM 240,000 per year
TIMEFRAME: Medium (3-6 months)
ACTION: Announce a staged price review with twelve weeks notice
CONFIDENCE: LOW — churn risk is unknown
ASSUMPTIONS: 10% of affected accounts churn

OPPORTUNITY 3
CATEGORY: Upsell
PATTERN: Support-heavy customers without a support plan
EVIDENCE: 36 accounts opened more than 20 tickets last quarter
REVENUE POTENTIAL: RM 30,000 - RM 65,000 per year
TIMEFRAME: Quick Win (0-90 days)
ACTION: Offer a priority support bundle at renewal
CONFIDENCE: HIGH — ticket counts are exact
ASSUMPTIONS: One in three accounts accepts the bundle
`

const brief = `SITUATION
Cash is tied up in aging receivables and a few process gaps are leaking money every month.

TOP DECISIONS NEEDED
1. Name an owner for collections this week.
2. Approve duplicate payment checks in the payment run.
3. Decide on the legacy price review timeline.

RISKS
Collections pressure may strain two key accounts. A price review may trigger churn.

NEXT 30 DAYS
Weekly aging review, duplicate detection live, partner data report drafted.
`

// Response returns the canned text for kind.
func Response(kind ai.Kind) (string, error) {
	switch kind {
	case ai.KindOperational:
		return operational, nil
	case ai.KindRevenue:
		return revenue, nil
	case ai.KindBrief:
		return brief, nil
	}
	return "", fmt.Errorf("demo: no response for kind %q", kind)
}

type Client struct {
	// Delay is the pause between streamed chunks.
	Delay time.Duration
	// ChunkSize is the number of bytes per streamed chunk; 0 streams by line.
	ChunkSize int
}

func NewClient(delay time.Duration) *Client {
	return &Client{Delay: delay}
}

func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return Response(req.Kind)
}

func (c *Client) Stream(ctx context.Context, req ai.Request, onDelta func(string)) (string, error) {
	text, err := Response(req.Kind)
	if err != nil {
		return "", err
	}
	var sent strings.Builder
	for _, chunk := range c.chunks(text) {
		if c.Delay > 0 {
			t := time.NewTimer(c.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return sent.String(), ctx.Err()
			case <-t.C:
			}
		} else if err := ctx.Err(); err != nil {
			return sent.String(), err
		}
		sent.WriteString(chunk)
		if onDelta != nil {
			onDelta(chunk)
		}
	}
	return text, nil
}

func (c *Client) chunks(text string) []string {
	if c.ChunkSize <= 0 {
		return strings.SplitAfter(text, "\n")
	}
	var out []string
	for len(text) > c.ChunkSize {
		out = append(out, text[:c.ChunkSize])
		text = text[c.ChunkSize:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

var _ ai.Client = (*Client)(nil)
