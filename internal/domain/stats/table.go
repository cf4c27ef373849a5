package stats

import "iter"

// Table is an additive key-to-count fact table. Merging is a pointwise sum,
// which lets per-set tables aggregate into match totals without
// recomputation.
type Table[K comparable] struct {
	counts map[K]int
}

// NewTable creates an empty table.
func NewTable[K comparable]() *Table[K] {
	return &Table[K]{counts: make(map[K]int)}
}

// Add increments the count for key by one.
func (t *Table[K]) Add(key K) {
	t.counts[key]++
}

// AddN increments the count for key by n.
func (t *Table[K]) AddN(key K, n int) {
	if n == 0 {
		return
	}
	t.counts[key] += n
}

// Merge adds every count of other into the table.
func (t *Table[K]) Merge(other *Table[K]) {
	if other == nil {
		return
	}
	for k, n := range other.counts {
		t.counts[k] += n
	}
}

// Clone returns an independent copy of the table.
func (t *Table[K]) Clone() *Table[K] {
	out := NewTable[K]()
	out.Merge(t)
	return out
}

// Len returns the number of distinct keys.
func (t *Table[K]) Len() int {
	return len(t.counts)
}

// Query returns a lazy iterator over the entries matching every filter.
// No filters means every entry.
func (t *Table[K]) Query(filters ...func(K) bool) iter.Seq2[K, int] {
	return func(yield func(K, int) bool) {
		for k, n := range t.counts {
			if !matches(k, filters) {
				continue
			}
			if !yield(k, n) {
				return
			}
		}
	}
}

// Sum returns the total count over the entries matching every filter.
func (t *Table[K]) Sum(filters ...func(K) bool) int {
	total := 0
	for _, n := range t.Query(filters...) {
		total += n
	}
	return total
}

func matches[K comparable](k K, filters []func(K) bool) bool {
	for _, f := range filters {
		if !f(k) {
			return false
		}
	}
	return true
}
