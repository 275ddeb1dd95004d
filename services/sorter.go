package services

import (
	"sort"
	"strings"

	"ipotrack/models"
)

// SortColumn identifies a sortable listing column.
type SortColumn string

const (
	// ColumnNone means no explicit column is active and the default
	// ordering applies.
	ColumnNone     SortColumn = ""
	ColumnName     SortColumn = "name"
	ColumnExchange SortColumn = "exchange"
	ColumnPrice    SortColumn = "price"
	ColumnShares   SortColumn = "shares"
	ColumnRaise    SortColumn = "raise"
	ColumnDate     SortColumn = "date"
)

// SortDirection is the ordering direction for an active column.
type SortDirection string

const (
	DirectionNone SortDirection = ""
	DirectionAsc  SortDirection = "asc"
	DirectionDesc SortDirection = "desc"
)

// SortState is the (column, direction) pair driven by column clicks.
// The zero value means default ordering.
type SortState struct {
	Column    SortColumn
	Direction SortDirection
}

// ParseSortColumn maps a query-string value onto a known column,
// returning ColumnNone for anything unrecognized.
func ParseSortColumn(value string) SortColumn {
	switch SortColumn(strings.ToLower(strings.TrimSpace(value))) {
	case ColumnName, ColumnExchange, ColumnPrice, ColumnShares, ColumnRaise, ColumnDate:
		return SortColumn(strings.ToLower(strings.TrimSpace(value)))
	default:
		return ColumnNone
	}
}

// Toggle advances the per-column state machine for a column click.
// Clicking the active column cycles ascending, descending, then clears
// back to the default ordering; clicking any other column activates it
// ascending.
func (s *SortState) Toggle(column SortColumn) {
	if column == ColumnNone {
		return
	}
	if s.Column != column {
		s.Column = column
		s.Direction = DirectionAsc
		return
	}
	switch s.Direction {
	case DirectionAsc:
		s.Direction = DirectionDesc
	case DirectionDesc:
		s.Column = ColumnNone
		s.Direction = DirectionNone
	default:
		s.Direction = DirectionAsc
	}
}

// IsDefault reports whether the default ordering applies.
func (s SortState) IsDefault() bool {
	return s.Column == ColumnNone || s.Direction == DirectionNone
}

// Signature returns a stable string identity for the current ordering,
// used by the paginator as its page-reset trigger.
func (s SortState) Signature() string {
	if s.IsDefault() {
		return "default"
	}
	return string(s.Column) + ":" + string(s.Direction)
}

// Sorter orders canonical records. Sorting never mutates its input:
// callers always receive a fresh slice with dense 1-based ranks
// assigned over the final sequence.
type Sorter struct {
	normalizer *NormalizerService
}

func NewSorter(normalizer *NormalizerService) *Sorter {
	return &Sorter{normalizer: normalizer}
}

// Sort returns a newly ordered copy of records under the given state.
//
// Rules:
//   - Default order: estimated IPO date ascending with empty dates
//     last, ties broken by coerced market cap descending (the same
//     compound the KV snapshot is built with).
//   - name/exchange: case-insensitive lexical comparison.
//   - price/shares/raise: numeric coercion; rows coercing to exactly
//     zero sort after every nonzero row in both directions, because a
//     zero here means "no data", not a small value.
//   - date: empty dates sort last in both directions; non-empty dates
//     compare lexically (valid for ISO year-month-day values).
//
// Equal comparisons preserve input order (stable sort).
func (s *Sorter) Sort(records []models.IPO, state SortState) []models.IPO {
	out := make([]models.IPO, len(records))
	copy(out, records)

	less := s.comparator(state)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func (s *Sorter) comparator(state SortState) func(a, b models.IPO) bool {
	if state.IsDefault() {
		return s.defaultLess
	}

	ascending := state.Direction == DirectionAsc
	switch state.Column {
	case ColumnName:
		return lexicalLess(func(r models.IPO) string { return r.CompanyName }, ascending)
	case ColumnExchange:
		return lexicalLess(func(r models.IPO) string { return r.Exchange }, ascending)
	case ColumnPrice:
		return s.numericLess(func(r models.IPO) string { return r.SharePrice }, ascending)
	case ColumnShares:
		return s.numericLess(func(r models.IPO) string { return r.SharesOffered }, ascending)
	case ColumnRaise:
		return s.numericLess(func(r models.IPO) string { return r.MarketCap }, ascending)
	case ColumnDate:
		return dateLess(ascending)
	default:
		return s.defaultLess
	}
}

// defaultLess is the default compound ordering: date ascending with
// empties last, then coerced market cap descending. The market cap key
// also decides ordering when both dates are empty; a coerced zero is a
// legitimate secondary key here, unlike in explicit numeric sorts.
func (s *Sorter) defaultLess(a, b models.IPO) bool {
	aEmpty, bEmpty := a.EstimatedIPODate == "", b.EstimatedIPODate == ""
	if aEmpty != bEmpty {
		return bEmpty
	}
	if !aEmpty && a.EstimatedIPODate != b.EstimatedIPODate {
		return a.EstimatedIPODate < b.EstimatedIPODate
	}
	return s.normalizer.CoerceNumeric(a.MarketCap) > s.normalizer.CoerceNumeric(b.MarketCap)
}

func lexicalLess(key func(models.IPO) string, ascending bool) func(a, b models.IPO) bool {
	return func(a, b models.IPO) bool {
		ka, kb := strings.ToLower(key(a)), strings.ToLower(key(b))
		if ka == kb {
			return false
		}
		if ascending {
			return ka < kb
		}
		return ka > kb
	}
}

func (s *Sorter) numericLess(key func(models.IPO) string, ascending bool) func(a, b models.IPO) bool {
	return func(a, b models.IPO) bool {
		ka, kb := s.normalizer.CoerceNumeric(key(a)), s.normalizer.CoerceNumeric(key(b))
		aZero, bZero := ka == 0, kb == 0
		if aZero != bZero {
			// "No data" rows go last regardless of direction.
			return bZero
		}
		if aZero || ka == kb {
			return false
		}
		if ascending {
			return ka < kb
		}
		return ka > kb
	}
}

func dateLess(ascending bool) func(a, b models.IPO) bool {
	return func(a, b models.IPO) bool {
		aEmpty, bEmpty := a.EstimatedIPODate == "", b.EstimatedIPODate == ""
		if aEmpty != bEmpty {
			return bEmpty
		}
		if aEmpty || a.EstimatedIPODate == b.EstimatedIPODate {
			return false
		}
		if ascending {
			return a.EstimatedIPODate < b.EstimatedIPODate
		}
		return a.EstimatedIPODate > b.EstimatedIPODate
	}
}
