package findings

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Record keywords.
const (
	KeywordFinding     = "FINDING"
	KeywordOpportunity = "OPPORTUNITY"
)

type headerPattern struct {
	any   *regexp.Regexp // header anywhere, for splitting
	start *regexp.Regexp // header at segment start, captures the number
}

var headerPatterns sync.Map // keyword -> headerPattern

func headerFor(keyword string) headerPattern {
	if hp, ok := headerPatterns.Load(keyword); ok {
		return hp.(headerPattern)
	}
	q := regexp.QuoteMeta(keyword)
	hp := headerPattern{
		any:   regexp.MustCompile(`(?i)` + q + `\s+\d+`),
		start: regexp.MustCompile(`(?i)^` + q + `\s+(\d+)`),
	}
	actual, _ := headerPatterns.LoadOrStore(keyword, hp)
	return actual.(headerPattern)
}

// Segment splits text into one raw segment per "KEYWORD <n>" header. Each
// segment runs from its header to just before the next one. Text before the
// first header is dropped; no header yields nil.
func Segment(text, keyword string) []string {
	keyword = strings.TrimSpace(keyword)
	var out []string
	for _, piece := range split(text, keyword) {
		if _, _, ok := headerID(piece, keyword); ok {
			out = append(out, piece)
		}
	}
	return out
}

// split cuts text in front of every header, keeping a leading piece when text
// does not open with a header. Blank pieces are not returned.
func split(text, keyword string) []string {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	locs := headerFor(keyword).any.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]string, 0, len(locs)+1)
	if lead := text[:locs[0][0]]; strings.TrimSpace(lead) != "" {
		out = append(out, lead)
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, text[loc[0]:end])
	}
	return out
}

// headerID reads the record number off the front of a segment. ok is false
// when the segment does not start with the header.
func headerID(segment, keyword string) (id int, parsed bool, ok bool) {
	m := headerFor(keyword).start.FindStringSubmatch(segment)
	if m == nil {
		return 0, false, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false, true
	}
	return n, true, true
}
