package domain

import (
	"slices"
	"strings"
)

// ColumnName maps a phenomenon identifier to a safe column identifier:
// lower-cased, with every character outside [a-z0-9] replaced by '_'.
// Characters outside the Basic Multilingual Plane count twice, as they do in
// the UTF-16 identifiers of existing tables.
func ColumnName(phenomenon string) string {
	lower := strings.ToLower(phenomenon)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r > 0xFFFF:
			b.WriteString("__")
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// UnitColumnName returns the name of the unit column paired with column.
func UnitColumnName(column string) string {
	return column + "_unit"
}

// Phenomena is the ordered set of normalized phenomenon columns discovered in
// one run. It is built once and passed by value; callers must not mutate the
// underlying slice.
type Phenomena []string

// NewPhenomena normalizes, deduplicates and sorts raw phenomenon identifiers.
// Identifiers that normalize to the same column collapse into one entry.
func NewPhenomena(ids []string) Phenomena {
	cols := make([]string, 0, len(ids))
	for _, id := range ids {
		cols = append(cols, ColumnName(id))
	}
	slices.Sort(cols)
	return Phenomena(slices.Compact(cols))
}

// Contains reports whether column is part of the set.
func (p Phenomena) Contains(column string) bool {
	_, found := slices.BinarySearch(p, column)
	return found
}
