package findings

import "sort"

// Health is the color band of the resolution indicator.
type Health string

const (
	HealthGood     Health = "good"
	HealthWarning  Health = "warning"
	HealthCritical Health = "critical"
)

// HealthBand maps a resolution ratio onto its band.
func HealthBand(ratio float64) Health {
	switch {
	case ratio >= 0.7:
		return HealthGood
	case ratio >= 0.3:
		return HealthWarning
	default:
		return HealthCritical
	}
}

// Active returns the findings not in resolved, in input order.
func Active(fs []Finding, resolved ResolvedSet) []Finding {
	out := make([]Finding, 0, len(fs))
	for _, f := range fs {
		if !resolved.Has(f.ID) {
			out = append(out, f)
		}
	}
	return out
}

// Resolved returns the findings in resolved, in input order.
func Resolved(fs []Finding, resolved ResolvedSet) []Finding {
	out := make([]Finding, 0, resolved.Len())
	for _, f := range fs {
		if resolved.Has(f.ID) {
			out = append(out, f)
		}
	}
	return out
}

// TotalExposure sums MaxAmount over the active findings.
func TotalExposure(fs []Finding, resolved ResolvedSet) int64 {
	var total int64
	for _, f := range fs {
		if !resolved.Has(f.ID) {
			total += f.MaxAmount
		}
	}
	return total
}

// PriorityOrder returns the active findings, highest tier first and then
// highest daily cost. Equal keys keep their input order.
func PriorityOrder(fs []Finding, resolved ResolvedSet) []Finding {
	out := Active(fs, resolved)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Tier.Rank(), out[j].Tier.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].DailyCost > out[j].DailyCost
	})
	return out
}

// ResolutionRatio is the resolved count over the finding count, 0 for no
// findings. Resolved ids left over from an earlier scan still count, so the
// ratio is capped at 1.
func ResolutionRatio(fs []Finding, resolved ResolvedSet) float64 {
	if len(fs) == 0 {
		return 0
	}
	r := float64(resolved.Len()) / float64(len(fs))
	if r > 1 {
		return 1
	}
	return r
}

// StaleResolutions lists resolved ids whose finding changed since it was
// resolved: the id is gone, or its fingerprint differs. Ids stored without a
// fingerprint are never reported.
func StaleResolutions(fs []Finding, resolved ResolvedSet) []int {
	current := make(map[int]string, len(fs))
	for _, f := range fs {
		current[f.ID] = f.Fingerprint
	}
	var out []int
	for _, id := range resolved.IDs() {
		fp, _ := resolved.FingerprintOf(id)
		if fp == "" {
			continue
		}
		if now, ok := current[id]; !ok || now != fp {
			out = append(out, id)
		}
	}
	return out
}

// Rollup is every derived figure the dashboard reads for an operational scan.
type Rollup struct {
	Total            int       `json:"total"`
	ActiveCount      int       `json:"active_count"`
	ResolvedCount    int       `json:"resolved_count"`
	TotalExposure    int64     `json:"total_exposure"`
	DailyExposure    int64     `json:"daily_exposure"`
	ResolutionRatio  float64   `json:"resolution_ratio"`
	Health           Health    `json:"health"`
	TierCounts       [3]int    `json:"tier_counts"` // index 0 is tier 1
	Priority         []Finding `json:"priority"`
	StaleResolutions []int     `json:"stale_resolutions"`
}

// Summarize computes a Rollup. Inputs are not modified.
func Summarize(fs []Finding, resolved ResolvedSet) Rollup {
	priority := PriorityOrder(fs, resolved)
	ratio := ResolutionRatio(fs, resolved)
	r := Rollup{
		Total:            len(fs),
		ActiveCount:      len(priority),
		ResolvedCount:    len(fs) - len(priority),
		TotalExposure:    TotalExposure(fs, resolved),
		ResolutionRatio:  ratio,
		Health:           HealthBand(ratio),
		Priority:         priority,
		StaleResolutions: StaleResolutions(fs, resolved),
	}
	if r.StaleResolutions == nil {
		r.StaleResolutions = []int{}
	}
	for _, f := range priority {
		r.DailyExposure += f.DailyCost
		r.TierCounts[f.Tier.Rank()-1]++
	}
	return r
}

// OpportunityRollup aggregates a revenue scan.
type OpportunityRollup struct {
	Total          int           `json:"total"`
	TotalPotential int64         `json:"total_potential"`
	QuickWinCount  int           `json:"quick_win_count"`
	QuickWinValue  int64         `json:"quick_win_value"`
	UnknownAmount  int           `json:"unknown_amount"`
	RankedByValue  []Opportunity `json:"ranked_by_value"`
}

// SummarizeOpportunities computes an OpportunityRollup. Ranking is by
// MaxAmount descending, stable.
func SummarizeOpportunities(opps []Opportunity) OpportunityRollup {
	r := OpportunityRollup{Total: len(opps)}
	ranked := make([]Opportunity, len(opps))
	copy(ranked, opps)
	for _, o := range opps {
		r.TotalPotential += o.MaxAmount
		if !o.AmountKnown() {
			r.UnknownAmount++
		}
		if o.IsQuickWin {
			r.QuickWinCount++
			r.QuickWinValue += o.MaxAmount
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MaxAmount > ranked[j].MaxAmount
	})
	r.RankedByValue = ranked
	return r
}
