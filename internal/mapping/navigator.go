package mapping

import "sort"

// Stats summarizes cursor coverage over the canonical record list.
type Stats struct {
	Total    int `json:"total"`
	Included int `json:"included"`
	Excluded int `json:"excluded"`
}

// Navigator is a cursor over canonical records with wraparound traversal and
// an exclusion set. The current index is -1 exactly when there are no
// records, otherwise always in range.
type Navigator struct {
	records  []Record
	current  int
	excluded map[int]struct{}
}

// NewNavigator seeds a cursor over records.
func NewNavigator(records []Record) *Navigator {
	n := &Navigator{}
	n.Reset(records)
	return n
}

// Reset replaces the record list, moves the cursor to the first record (or
// -1 when empty), and unconditionally clears the exclusion set. Old indices
// are meaningless against new data.
func (n *Navigator) Reset(records []Record) {
	n.records = records
	n.excluded = make(map[int]struct{})
	if len(records) > 0 {
		n.current = 0
	} else {
		n.current = -1
	}
}

// Len is the total record count.
func (n *Navigator) Len() int { return len(n.records) }

// CurrentIndex returns the cursor position, -1 when there are no records.
func (n *Navigator) CurrentIndex() int { return n.current }

// Current returns the record under the cursor.
func (n *Navigator) Current() (Record, bool) {
	if n.current < 0 {
		return Record{}, false
	}
	return n.records[n.current], true
}

// Record returns the record at index i.
func (n *Navigator) Record(i int) (Record, bool) {
	if i < 0 || i >= len(n.records) {
		return Record{}, false
	}
	return n.records[i], true
}

// Next advances the cursor to the following non-excluded record, wrapping at
// the end. It reports false and leaves the cursor unchanged when there are
// no records or every record is excluded.
func (n *Navigator) Next() bool { return n.step(1) }

// Previous moves the cursor to the preceding non-excluded record, wrapping
// at the start. Failure semantics match Next.
func (n *Navigator) Previous() bool { return n.step(-1) }

func (n *Navigator) step(delta int) bool {
	count := len(n.records)
	if n.current < 0 || count == 0 {
		return false
	}
	candidate := n.current
	for i := 0; i < count; i++ {
		candidate = (candidate + delta + count) % count
		if _, skip := n.excluded[candidate]; !skip {
			n.current = candidate
			return true
		}
	}
	return false
}

// ToggleExclude flips the exclusion of the current record. It reports false
// when there is no current record.
func (n *Navigator) ToggleExclude() bool {
	if n.current < 0 {
		return false
	}
	if _, ok := n.excluded[n.current]; ok {
		delete(n.excluded, n.current)
	} else {
		n.excluded[n.current] = struct{}{}
	}
	return true
}

// IsExcluded reports whether index i is excluded.
func (n *Navigator) IsExcluded(i int) bool {
	_, ok := n.excluded[i]
	return ok
}

// Excluded returns the excluded indices in ascending order.
func (n *Navigator) Excluded() []int {
	out := make([]int, 0, len(n.excluded))
	for i := range n.excluded {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// IncludedIndices returns the indices of the non-excluded records in
// ascending order.
func (n *Navigator) IncludedIndices() []int {
	out := make([]int, 0, len(n.records)-len(n.excluded))
	for i := range n.records {
		if _, skip := n.excluded[i]; !skip {
			out = append(out, i)
		}
	}
	return out
}

// IncludedRecords returns the records not excluded, in original order. With
// an empty exclusion set it returns the backing slice itself, so callers
// must treat the result as read-only.
func (n *Navigator) IncludedRecords() []Record {
	if len(n.excluded) == 0 {
		return n.records
	}
	out := make([]Record, 0, len(n.records)-len(n.excluded))
	for i, rec := range n.records {
		if _, skip := n.excluded[i]; !skip {
			out = append(out, rec)
		}
	}
	return out
}

// Stats derives total, included and excluded counts.
func (n *Navigator) Stats() Stats {
	return Stats{
		Total:    len(n.records),
		Included: len(n.records) - len(n.excluded),
		Excluded: len(n.excluded),
	}
}
