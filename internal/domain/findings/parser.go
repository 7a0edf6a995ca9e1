package findings

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

var rxTier = regexp.MustCompile(`(?i)Tier\s*(\d)`)

// ParseStats counts what a parse run threw away.
type ParseStats struct {
	Segments  int  `json:"segments"`  // pieces produced by the header split
	Skipped   int  `json:"skipped"`   // pieces that did not open with a header
	Dropped   int  `json:"dropped"`   // records discarded for an empty PATTERN
	Recovered bool `json:"recovered"` // a panic was caught, output is partial
}

// Warnings is the number of pieces that produced no record.
func (s ParseStats) Warnings() int { return s.Skipped + s.Dropped }

// IsUpstreamError reports whether text is an error payload rather than a
// model response. Such text is never parsed, so stray numbers in it are not
// mistaken for amounts.
func IsUpstreamError(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "Error")
}

// ParseFindings turns an operational scan response into findings. It never
// fails; malformed input yields fewer records.
func ParseFindings(text string) []Finding {
	out, _ := ParseFindingsReport(text)
	return out
}

// ParseFindingsReport is ParseFindings plus the counts of discarded pieces.
func ParseFindingsReport(text string) (out []Finding, stats ParseStats) {
	out = []Finding{}
	if IsUpstreamError(text) {
		return out, stats
	}
	defer recoverParse(KeywordFinding, &stats)

	pieces := split(text, KeywordFinding)
	stats.Segments = len(pieces)
	for _, seg := range pieces {
		id, parsed, ok := headerID(seg, KeywordFinding)
		if !ok {
			stats.Skipped++
			continue
		}
		if !parsed {
			id = len(out) + 1
		}
		f := Finding{
			ID:          id,
			Pattern:     ExtractField(seg, LabelPattern),
			Evidence:    ExtractField(seg, LabelEvidence),
			Recurrence:  ExtractField(seg, LabelRecurrence),
			Impact:      ExtractField(seg, LabelImpact),
			RootCause:   ExtractField(seg, LabelRootCause),
			Fix:         ExtractField(seg, LabelFix),
			Severity:    ExtractField(seg, LabelSeverity),
			Confidence:  ExtractField(seg, LabelConfidence),
			Assumptions: ExtractField(seg, LabelAssumptions),
		}
		if f.Pattern == "" {
			stats.Dropped++
			continue
		}
		f.Tier = ParseTier(f.Severity)
		f.MaxAmount = MaxAmount(f.Impact)
		f.DailyCost = DailyCost(f.MaxAmount)
		f.ConfidenceLevel = confidenceLevel(f.Confidence)
		f.Fingerprint = Fingerprint(f.Pattern)
		out = append(out, f)
	}
	return out, stats
}

// ParseTier reads "Tier N" out of a SEVERITY value. Missing or out-of-range
// tiers fall back to DefaultTier.
func ParseTier(severity string) Tier {
	m := rxTier.FindStringSubmatch(severity)
	if m == nil {
		return DefaultTier
	}
	switch t := Tier(m[1]); t {
	case Tier1, Tier2, Tier3:
		return t
	}
	return DefaultTier
}

func recoverParse(keyword string, stats *ParseStats) {
	if r := recover(); r != nil {
		stats.Recovered = true
		log.Error().
			Str("keyword", keyword).
			Str("panic", fmt.Sprint(r)).
			Msg("parse aborted, returning partial records")
	}
}
