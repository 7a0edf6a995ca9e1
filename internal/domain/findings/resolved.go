package findings

import (
	"encoding/json"
	"sort"
	"strconv"
)

// ResolvedSet holds the finding ids the user has marked as addressed, each
// with the fingerprint of the finding at the time it was resolved.
//
// Ids are positional, so after a re-scan an id may name a different finding.
// The fingerprint lets Summarize report such stale resolutions; membership
// itself is still decided by id alone.
type ResolvedSet struct {
	ids map[int]string
}

// NewResolvedSet builds a set from bare ids with no fingerprints.
func NewResolvedSet(ids ...int) ResolvedSet {
	s := ResolvedSet{ids: make(map[int]string, len(ids))}
	for _, id := range ids {
		s.ids[id] = ""
	}
	return s
}

func (s ResolvedSet) Has(id int) bool {
	_, ok := s.ids[id]
	return ok
}

func (s ResolvedSet) Len() int { return len(s.ids) }

// IDs returns the members in ascending order.
func (s ResolvedSet) IDs() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// FingerprintOf returns the fingerprint stored for id.
func (s ResolvedSet) FingerprintOf(id int) (string, bool) {
	fp, ok := s.ids[id]
	return fp, ok
}

// Toggle flips the state of f and reports whether it is now resolved.
func (s *ResolvedSet) Toggle(f Finding) bool {
	if s.ids == nil {
		s.ids = make(map[int]string)
	}
	if _, ok := s.ids[f.ID]; ok {
		delete(s.ids, f.ID)
		return false
	}
	s.ids[f.ID] = f.Fingerprint
	return true
}

// Clone returns an independent copy.
func (s ResolvedSet) Clone() ResolvedSet {
	c := ResolvedSet{ids: make(map[int]string, len(s.ids))}
	for id, fp := range s.ids {
		c.ids[id] = fp
	}
	return c
}

// MarshalJSON encodes the set as {"<id>": "<fingerprint>"}.
func (s ResolvedSet) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(s.ids))
	for id, fp := range s.ids {
		m[strconv.Itoa(id)] = fp
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts the object form and a plain array of ids.
func (s *ResolvedSet) UnmarshalJSON(b []byte) error {
	var ids []int
	if err := json.Unmarshal(b, &ids); err == nil {
		*s = NewResolvedSet(ids...)
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	s.ids = make(map[int]string, len(m))
	for k, fp := range m {
		id, err := strconv.Atoi(k)
		if err != nil {
			return err
		}
		s.ids[id] = fp
	}
	return nil
}
