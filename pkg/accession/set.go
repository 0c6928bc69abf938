// Package accession provides the accession-set value type used for
// entity resolution, plus INSDC accession pattern helpers.
package accession

// Set is a deduplicated collection of archive accession strings that
// address one real-world entity. Order is preserved from insertion so
// that the first element can serve as the display accession; it carries
// no other meaning. Accessions are case-sensitive exact identifiers.
type Set []string

// NewSet builds a Set from the given accessions, dropping duplicates
// and empty strings while preserving first-seen order.
func NewSet(accessions ...string) Set {
	s := make(Set, 0, len(accessions))
	seen := make(map[string]struct{}, len(accessions))
	for _, a := range accessions {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		s = append(s, a)
	}
	return s
}

// Contains reports whether the set holds the given accession.
func (s Set) Contains(accession string) bool {
	for _, a := range s {
		if a == accession {
			return true
		}
	}
	return false
}

// Overlaps reports whether the two sets share at least one accession.
// This is the sole matching predicate used during entity resolution:
// two records are the same entity iff their accession sets intersect.
func (s Set) Overlaps(other Set) bool {
	if len(s) == 0 || len(other) == 0 {
		return false
	}
	members := make(map[string]struct{}, len(s))
	for _, a := range s {
		members[a] = struct{}{}
	}
	for _, a := range other {
		if _, ok := members[a]; ok {
			return true
		}
	}
	return false
}

// IsSupersetOf reports whether every accession in other is also in s.
// An empty other is a subset of anything.
func (s Set) IsSupersetOf(other Set) bool {
	members := make(map[string]struct{}, len(s))
	for _, a := range s {
		members[a] = struct{}{}
	}
	for _, a := range other {
		if _, ok := members[a]; !ok {
			return false
		}
	}
	return true
}

// Union returns a new set containing the accessions of s followed by
// those of other, deduplicated. Neither input is modified.
func (s Set) Union(other Set) Set {
	merged := make([]string, 0, len(s)+len(other))
	merged = append(merged, s...)
	merged = append(merged, other...)
	return NewSet(merged...)
}

// First returns the first accession in the set, or "" if empty.
// Used as the display/primary accession convenience accessor.
func (s Set) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
