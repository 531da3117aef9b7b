// Package diff computes the semantic change-set between two protocol
// datasets.
package diff

import (
	"sort"
	"strings"

	"github.com/c360studio/oracletrack/protocol"
)

// TypeChange records one oracle whose breakdown type changed.
type TypeChange struct {
	Name string `json:"name"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// Change is the diff result for one protocol present in both the
// previous and current dataset.
type Change struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SourceFile string `json:"file"`

	// Revision cross-references the data source state this change was
	// observed at (for example a commit SHA). It is stamped during
	// diffing so renderers never have to recover it from text.
	Revision string `json:"revision,omitempty"`

	// Plus lists oracles newly present, from the flat oracle set and
	// the breakdown name set combined.
	Plus []string `json:"plus"`

	// Minus lists oracles newly absent, same combined view.
	Minus []string `json:"minus"`

	// Types lists breakdown entries present on both sides whose type
	// changed, in ascending name order.
	Types []TypeChange `json:"types"`
}

// Changeset is an ordered list of changes, ascending by id.
type Changeset []Change

// Diff computes the change-set between two datasets. It is a pure
// function with deterministic output ordering. Only ids present on
// both sides are compared: whole-record additions and removals are
// not reported as changes.
func Diff(prev, next protocol.Dataset, revision string) Changeset {
	changes := Changeset{}

	for _, id := range unionIDs(prev, next) {
		a, inPrev := prev[id]
		b, inNext := next[id]
		if !inPrev || !inNext {
			continue
		}

		oraclesAdded := setDifference(b.Oracles, a.Oracles)
		oraclesRemoved := setDifference(a.Oracles, b.Oracles)

		aTypes := breakdownTypes(a.Breakdown)
		bTypes := breakdownTypes(b.Breakdown)

		namesAdded := mapKeyDifference(bTypes, aTypes)
		namesRemoved := mapKeyDifference(aTypes, bTypes)

		var typeChanges []TypeChange
		for _, name := range sharedKeys(aTypes, bTypes) {
			if aTypes[name] != bTypes[name] {
				typeChanges = append(typeChanges, TypeChange{Name: name, Old: aTypes[name], New: bTypes[name]})
			}
		}

		plus := sortedUnion(oraclesAdded, namesAdded)
		minus := sortedUnion(oraclesRemoved, namesRemoved)

		if len(plus) == 0 && len(minus) == 0 && len(typeChanges) == 0 {
			continue
		}

		name := b.Name
		if name == "" {
			name = a.Name
		}
		if typeChanges == nil {
			typeChanges = []TypeChange{}
		}

		changes = append(changes, Change{
			ID:         id,
			Name:       name,
			SourceFile: b.SourceFile,
			Revision:   revision,
			Plus:       plus,
			Minus:      minus,
			Types:      typeChanges,
		})
	}

	return changes
}

// breakdownTypes builds the name→type map for one side. Entries with
// an empty name carry no identity and are ignored; fields are trimmed
// so incidental whitespace does not register as a change.
func breakdownTypes(entries []protocol.BreakdownEntry) map[string]string {
	types := make(map[string]string, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		types[name] = strings.TrimSpace(e.Type)
	}
	return types
}

// unionIDs returns the sorted union of ids on both sides.
func unionIDs(prev, next protocol.Dataset) []string {
	seen := make(map[string]bool, len(prev)+len(next))
	ids := make([]string, 0, len(prev)+len(next))
	for id := range prev {
		seen[id] = true
		ids = append(ids, id)
	}
	for id := range next {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// setDifference returns the sorted elements of a that are not in b.
func setDifference(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, v := range b {
		inB[v] = true
	}
	var out []string
	for _, v := range a {
		if !inB[v] {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// mapKeyDifference returns the sorted keys of a that are not keys of b.
func mapKeyDifference(a, b map[string]string) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// sharedKeys returns the sorted keys present in both maps.
func sharedKeys(a, b map[string]string) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// sortedUnion merges two string sets into one sorted, deduplicated
// slice. The result is never nil.
func sortedUnion(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
