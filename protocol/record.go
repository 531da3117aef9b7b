// Package protocol defines the normalized record model for protocol
// oracle metadata extracted from source object literals.
package protocol

import "sort"

// BreakdownEntry describes one oracle association in detail.
type BreakdownEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Record is the normalized representation of one recognized object
// literal: a protocol and its oracle metadata.
type Record struct {
	// ID uniquely identifies the protocol within a scan.
	ID string `json:"id"`

	// Name is the display label (may be empty).
	Name string `json:"name"`

	// SourceFile is the name of the data file the record was found in.
	// Informational only, not part of identity.
	SourceFile string `json:"file"`

	// Oracles is the deduplicated, sorted flat oracle set.
	Oracles []string `json:"oracles"`

	// Breakdown is the per-oracle detail list, sorted by (name, type).
	Breakdown []BreakdownEntry `json:"oraclesBreakdown"`
}

// Dataset is the complete keyed record map produced by one scan.
type Dataset map[string]Record

// IDs returns all record ids in ascending order.
func (d Dataset) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Collision records one id override during a multi-file merge.
type Collision struct {
	// ID is the colliding record id.
	ID string `json:"id"`
	// Shadowed is the source file of the record that was overwritten.
	Shadowed string `json:"shadowed"`
	// Winner is the source file of the record that replaced it.
	Winner string `json:"winner"`
}

// Merge folds other into d with last-write-wins semantics: records in
// other replace records with the same id already in d. Every override
// is reported so callers can surface the merge policy instead of
// losing records silently.
func (d Dataset) Merge(other Dataset) []Collision {
	var collisions []Collision
	for _, id := range other.IDs() {
		if prev, ok := d[id]; ok {
			collisions = append(collisions, Collision{
				ID:       id,
				Shadowed: prev.SourceFile,
				Winner:   other[id].SourceFile,
			})
		}
		d[id] = other[id]
	}
	return collisions
}
