package findings

import "regexp"

// Quick wins are flagged explicitly or carry the 0-90 day window, with any dash.
var rxQuickWin = regexp.MustCompile(`(?i)quick\s*win|\b0\s*[-–—]\s*90\b`)

// IsQuickWin classifies a TIMEFRAME value.
func IsQuickWin(timeframe string) bool {
	return rxQuickWin.MatchString(timeframe)
}

// ParseOpportunities turns a revenue scan response into opportunities.
func ParseOpportunities(text string) []Opportunity {
	out, _ := ParseOpportunitiesReport(text)
	return out
}

// ParseOpportunitiesReport is ParseOpportunities plus discard counts.
func ParseOpportunitiesReport(text string) (out []Opportunity, stats ParseStats) {
	out = []Opportunity{}
	if IsUpstreamError(text) {
		return out, stats
	}
	defer recoverParse(KeywordOpportunity, &stats)

	pieces := split(text, KeywordOpportunity)
	stats.Segments = len(pieces)
	for _, seg := range pieces {
		id, parsed, ok := headerID(seg, KeywordOpportunity)
		if !ok {
			stats.Skipped++
			continue
		}
		if !parsed {
			id = len(out) + 1
		}
		o := Opportunity{
			ID:          id,
			Category:    ExtractField(seg, LabelCategory),
			Pattern:     ExtractField(seg, LabelPattern),
			Evidence:    ExtractField(seg, LabelEvidence),
			Potential:   ExtractField(seg, LabelPotential),
			Timeframe:   ExtractField(seg, LabelTimeframe),
			Action:      ExtractField(seg, LabelAction),
			Confidence:  ExtractField(seg, LabelConfidence),
			Assumptions: ExtractField(seg, LabelAssumptions),
		}
		if o.Pattern == "" {
			stats.Dropped++
			continue
		}
		o.Tier = ParseTier(ExtractField(seg, LabelSeverity))
		o.MaxAmount = MaxAmount(o.Potential)
		o.DailyCost = DailyCost(o.MaxAmount)
		o.IsQuickWin = IsQuickWin(o.Timeframe)
		o.ConfidenceLevel = confidenceLevel(o.Confidence)
		o.Fingerprint = Fingerprint(o.Pattern)
		out = append(out, o)
	}
	return out, stats
}
