package findings

import (
	"regexp"
	"strings"
	"sync"
)

// Labels the upstream model is asked to emit.
const (
	LabelPattern     = "PATTERN"
	LabelEvidence    = "EVIDENCE"
	LabelRecurrence  = "RECURRENCE"
	LabelImpact      = "IMPACT"
	LabelRootCause   = "ROOT CAUSE"
	LabelFix         = "FIX"
	LabelSeverity    = "SEVERITY"
	LabelConfidence  = "CONFIDENCE"
	LabelAssumptions = "ASSUMPTIONS"
	LabelCategory    = "CATEGORY"
	LabelPotential   = "REVENUE POTENTIAL"
	LabelTimeframe   = "TIMEFRAME"
	LabelAction      = "ACTION"
)

var fieldPatterns sync.Map // label -> *regexp.Regexp

func fieldPattern(label string) *regexp.Regexp {
	if rx, ok := fieldPatterns.Load(label); ok {
		return rx.(*regexp.Regexp)
	}
	// [ \t]* keeps an empty value from swallowing the next line.
	rx := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(label) + `:[ \t]*([^\n]*)`)
	actual, _ := fieldPatterns.LoadOrStore(label, rx)
	return actual.(*regexp.Regexp)
}

// ExtractField returns the single-line value after "LABEL:" in segment, or ""
// when the label is absent. Only the first occurrence counts.
func ExtractField(segment, label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	m := fieldPattern(label).FindStringSubmatch(segment)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
