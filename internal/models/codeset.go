package models

import "strings"

// CodeSet is an ordered, duplicate-free collection of list codes.
// It replaces the comma-joined string encoding of the per-user list
// associations while keeping its semantics: insertion order, no
// duplicates, exact-match removal, no empty entries.
type CodeSet []string

// Contains reports whether the set holds the exact code.
func (s CodeSet) Contains(code string) bool {
	for _, existing := range s {
		if existing == code {
			return true
		}
	}
	return false
}

// Add appends the trimmed code unless it is empty or already present.
func (s *CodeSet) Add(code string) {
	code = strings.TrimSpace(code)
	if code == "" || s.Contains(code) {
		return
	}
	*s = append(*s, code)
}

// Remove drops every entry whose trimmed value equals the code,
// keeping the order of the remaining entries.
func (s *CodeSet) Remove(code string) {
	kept := (*s)[:0]
	for _, existing := range *s {
		if strings.TrimSpace(existing) != code {
			kept = append(kept, existing)
		}
	}
	*s = kept
}

// Clone returns an independent copy of the set.
func (s CodeSet) Clone() CodeSet {
	if s == nil {
		return nil
	}
	clone := make(CodeSet, len(s))
	copy(clone, s)
	return clone
}
