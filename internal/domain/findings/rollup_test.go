package findings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkFinding(id int, tier Tier, amount int64) Finding {
	return Finding{
		ID:          id,
		Pattern:     "pattern",
		Tier:        tier,
		MaxAmount:   amount,
		DailyCost:   DailyCost(amount),
		Fingerprint: Fingerprint("pattern " + string(tier)),
	}
}

func ids(fs []Finding) []int {
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = f.ID
	}
	return out
}

func TestPriorityOrderScenario(t *testing.T) {
	fs := []Finding{
		mkFinding(1, Tier3, 50000),
		mkFinding(2, Tier3, 10000),
		mkFinding(3, Tier1, 99999),
	}
	assert.Equal(t, []int{1, 2, 3}, ids(PriorityOrder(fs, NewResolvedSet())))
}

func TestPriorityOrderSortsAndIsStable(t *testing.T) {
	fs := []Finding{
		mkFinding(1, Tier1, 5000),
		mkFinding(2, Tier2, 3000),
		mkFinding(3, Tier3, 3000),
		mkFinding(4, Tier2, 9000),
		mkFinding(5, Tier2, 3000),
		mkFinding(6, Tier3, 3000),
	}
	got := PriorityOrder(fs, NewResolvedSet(4))
	assert.Equal(t, []int{3, 6, 2, 5, 1}, ids(got))
}

func TestRollupsRespectResolvedSet(t *testing.T) {
	fs := []Finding{
		mkFinding(1, Tier3, 320000),
		mkFinding(2, Tier2, 45000),
		mkFinding(3, Tier1, 0),
	}
	original := append([]Finding(nil), fs...)

	none := NewResolvedSet()
	assert.Len(t, Active(fs, none), 3)
	assert.Equal(t, int64(365000), TotalExposure(fs, none))

	var resolved ResolvedSet
	assert.True(t, resolved.Toggle(fs[0]))
	assert.Equal(t, []int{2, 3}, ids(Active(fs, resolved)))
	assert.Equal(t, []int{1}, ids(Resolved(fs, resolved)))
	assert.Equal(t, int64(45000), TotalExposure(fs, resolved))

	assert.False(t, resolved.Toggle(fs[0]))
	assert.Equal(t, int64(365000), TotalExposure(fs, resolved))

	assert.Equal(t, original, fs, "rollups never mutate findings")
}

func TestResolutionRatioAndHealth(t *testing.T) {
	fs := []Finding{mkFinding(1, Tier1, 0), mkFinding(2, Tier1, 0), mkFinding(3, Tier1, 0), mkFinding(4, Tier1, 0)}

	assert.Equal(t, 0.0, ResolutionRatio(nil, NewResolvedSet(1)))
	assert.Equal(t, 0.25, ResolutionRatio(fs, NewResolvedSet(1)))
	assert.Equal(t, 1.0, ResolutionRatio(fs, NewResolvedSet(1, 2, 3, 4, 5, 6)))

	tests := []struct {
		ratio float64
		want  Health
	}{
		{0, HealthCritical},
		{0.29, HealthCritical},
		{0.3, HealthWarning},
		{0.69, HealthWarning},
		{0.7, HealthGood},
		{1, HealthGood},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, HealthBand(tc.ratio), "ratio %v", tc.ratio)
	}
}

func TestSummarize(t *testing.T) {
	fs := []Finding{
		mkFinding(1, Tier3, 300000),
		mkFinding(2, Tier2, 30000),
		mkFinding(3, Tier1, 3000),
	}
	var resolved ResolvedSet
	resolved.Toggle(fs[2])

	r := Summarize(fs, resolved)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 2, r.ActiveCount)
	assert.Equal(t, 1, r.ResolvedCount)
	assert.Equal(t, int64(330000), r.TotalExposure)
	assert.Equal(t, int64(11000), r.DailyExposure)
	assert.InDelta(t, 1.0/3.0, r.ResolutionRatio, 1e-9)
	assert.Equal(t, HealthWarning, r.Health)
	assert.Equal(t, [3]int{0, 1, 1}, r.TierCounts)
	assert.Equal(t, []int{1, 2}, ids(r.Priority))
	assert.Empty(t, r.StaleResolutions)
	assert.NotNil(t, r.StaleResolutions)
}

func TestStaleResolutions(t *testing.T) {
	before := []Finding{mkFinding(1, Tier3, 1000), mkFinding(2, Tier2, 1000)}
	var resolved ResolvedSet
	resolved.Toggle(before[0])
	resolved.Toggle(before[1])

	// re-scan: id 1 now names another finding, id 2 is gone
	after := []Finding{mkFinding(1, Tier1, 1000)}
	assert.Equal(t, []int{1, 2}, StaleResolutions(after, resolved))
	assert.Empty(t, StaleResolutions(before, resolved))

	legacy := NewResolvedSet(1, 2)
	assert.Empty(t, StaleResolutions(after, legacy))
}

func TestResolvedSetJSON(t *testing.T) {
	var s ResolvedSet
	s.Toggle(Finding{ID: 3, Fingerprint: "abc"})
	s.Toggle(Finding{ID: 1})

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":"","3":"abc"}`, string(b))

	var back ResolvedSet
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []int{1, 3}, back.IDs())
	fp, ok := back.FingerprintOf(3)
	assert.True(t, ok)
	assert.Equal(t, "abc", fp)

	var legacy ResolvedSet
	require.NoError(t, json.Unmarshal([]byte(`[4,2]`), &legacy))
	assert.Equal(t, []int{2, 4}, legacy.IDs())

	assert.Error(t, json.Unmarshal([]byte(`{"x":"y"}`), &legacy))
}

func TestResolvedSetClone(t *testing.T) {
	s := NewResolvedSet(1)
	c := s.Clone()
	c.Toggle(Finding{ID: 2})
	assert.False(t, s.Has(2))
	assert.True(t, c.Has(2))
	assert.Equal(t, 1, s.Len())
}

func TestSummarizeOpportunities(t *testing.T) {
	opps := []Opportunity{
		{ID: 1, Pattern: "a", MaxAmount: 50000, IsQuickWin: true},
		{ID: 2, Pattern: "b", MaxAmount: 0},
		{ID: 3, Pattern: "c", MaxAmount: 120000, IsQuickWin: true},
		{ID: 4, Pattern: "d", MaxAmount: 80000},
	}
	r := SummarizeOpportunities(opps)
	assert.Equal(t, 4, r.Total)
	assert.Equal(t, int64(250000), r.TotalPotential)
	assert.Equal(t, 2, r.QuickWinCount)
	assert.Equal(t, int64(170000), r.QuickWinValue)
	assert.Equal(t, 1, r.UnknownAmount)

	order := make([]int, len(r.RankedByValue))
	for i, o := range r.RankedByValue {
		order[i] = o.ID
	}
	assert.Equal(t, []int{3, 4, 1, 2}, order)
	assert.Equal(t, 1, opps[0].ID, "input order untouched")
}
