// Package nameindex builds case-insensitive name to id lookups from Trello
// listing responses.
package nameindex

import "strings"

// Index maps a lower-cased display name to a remote id. An Index is rebuilt
// from a fresh listing, never patched.
type Index map[string]string

// Build indexes items by the lower-cased name returned from key. When two
// items share a lower-cased name the one listed last wins.
func Build[T any](items []T, key func(T) (name, id string)) Index {
	idx := make(Index, len(items))
	for _, item := range items {
		name, id := key(item)
		idx[strings.ToLower(name)] = id
	}
	return idx
}

// Lookup returns the id indexed under name, compared case-insensitively.
func (idx Index) Lookup(name string) (string, bool) {
	id, ok := idx[strings.ToLower(name)]
	return id, ok
}

// Collisions reports every lower-cased name that appears more than once in
// items, in first-seen order.
func Collisions[T any](items []T, key func(T) (name, id string)) []string {
	seen := make(map[string]int, len(items))
	var dups []string
	for _, item := range items {
		name, _ := key(item)
		lower := strings.ToLower(name)
		seen[lower]++
		if seen[lower] == 2 {
			dups = append(dups, lower)
		}
	}
	return dups
}
