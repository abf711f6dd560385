package nameindex

import "strings"

// MemberEntry is one indexed member with its searchable name projections.
type MemberEntry struct {
	ID       string
	FullName string
	parts    []string
}

// MemberIndex supports substring matching against full, first and last
// name projections.
type MemberIndex struct {
	entries []MemberEntry
}

// BuildMembers projects each member's full name into its lower-cased full,
// first and last forms.
func BuildMembers[T any](items []T, key func(T) (fullName, id string)) *MemberIndex {
	entries := make([]MemberEntry, 0, len(items))
	for _, item := range items {
		fullName, id := key(item)
		entries = append(entries, MemberEntry{
			ID:       id,
			FullName: fullName,
			parts:    projections(fullName),
		})
	}
	return &MemberIndex{entries: entries}
}

func projections(fullName string) []string {
	full := strings.ToLower(strings.TrimSpace(fullName))
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return []string{full}
	}
	return []string{full, fields[0], fields[len(fields)-1]}
}

// Match returns every member whose projections contain query. A member whose
// full name equals the query exactly is returned alone.
func (m *MemberIndex) Match(query string) []MemberEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var matches []MemberEntry
	for _, e := range m.entries {
		if e.parts[0] == q {
			return []MemberEntry{e}
		}
		for _, part := range e.parts {
			if strings.Contains(part, q) {
				matches = append(matches, e)
				break
			}
		}
	}
	return matches
}
