package vlan

import (
	"golang.org/x/exp/slices"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Entry is one range of an IntervalMap together with its payload.
type Entry[T comparable] struct {
	Range   Range
	Payload sets.Set[T]
}

// IntervalMap maps disjoint, canonical, non-empty VLAN ranges to payload sets.
// Overlapping ranges added to the map are split so that every resulting range
// carries the union of the payloads covering it.
type IntervalMap[T comparable] struct {
	entries []Entry[T]
}

// NewIntervalMap returns an empty map.
func NewIntervalMap[T comparable]() *IntervalMap[T] {
	return &IntervalMap[T]{}
}

// NewIntervalMapFrom builds a map from an already finalized partition.
// Every key has to be closed-open, non-empty and disjoint from all other keys.
func NewIntervalMapFrom[T comparable](partition map[Interval]sets.Set[T]) (*IntervalMap[T], error) {
	entries := make([]Entry[T], 0, len(partition))
	for key, payload := range partition {
		if !key.IsCanonical() {
			return nil, &IntervalError{Interval: key, Err: ErrNonCanonical}
		}
		r := key.Canonical()
		if r.IsEmpty() {
			return nil, &IntervalError{Interval: key, Err: ErrEmptyRange}
		}
		entries = append(entries, Entry[T]{Range: r, Payload: payload.Clone()})
	}
	slices.SortFunc(entries, func(a, b Entry[T]) int { return a.Range.Compare(b.Range) })
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Range.Overlaps(entries[i].Range) {
			return nil, OverlapError{First: entries[i-1].Range, Second: entries[i].Range}
		}
	}
	return &IntervalMap[T]{entries: entries}, nil
}

// Add merges interval with payload into the partition. Empty intervals and
// empty payloads are ignored.
func (m *IntervalMap[T]) Add(interval Interval, payload sets.Set[T]) {
	m.add(interval.Canonical(), payload)
}

// AddRange is Add for an already canonical range.
func (m *IntervalMap[T]) AddRange(r Range, items ...T) {
	m.add(r, sets.New(items...))
}

func (m *IntervalMap[T]) add(r Range, payload sets.Set[T]) {
	if r.IsEmpty() || payload.Len() == 0 {
		return
	}

	result := make([]Entry[T], 0, len(m.entries)+2) //nolint:mnd
	uncovered := []Range{r}
	for _, existing := range m.entries {
		shared := existing.Range.Intersection(r)
		if shared.IsEmpty() {
			result = append(result, existing)
			continue
		}
		if left := ClosedOpen(existing.Range.start, shared.start); !left.IsEmpty() {
			result = append(result, Entry[T]{Range: left, Payload: existing.Payload.Clone()})
		}
		result = append(result, Entry[T]{Range: shared, Payload: existing.Payload.Union(payload)})
		if right := ClosedOpen(shared.end, existing.Range.end); !right.IsEmpty() {
			result = append(result, Entry[T]{Range: right, Payload: existing.Payload.Clone()})
		}
		uncovered = subtract(uncovered, shared)
	}
	for _, gap := range uncovered {
		result = append(result, Entry[T]{Range: gap, Payload: payload.Clone()})
	}

	slices.SortFunc(result, func(a, b Entry[T]) int { return a.Range.Compare(b.Range) })
	m.entries = result
}

// subtract removes cut from every range of in.
func subtract(in []Range, cut Range) []Range {
	out := make([]Range, 0, len(in)+1)
	for _, r := range in {
		if !r.Overlaps(cut) {
			out = append(out, r)
			continue
		}
		if left := ClosedOpen(r.start, cut.start); !left.IsEmpty() {
			out = append(out, left)
		}
		if right := ClosedOpen(cut.end, r.end); !right.IsEmpty() {
			out = append(out, right)
		}
	}
	return out
}

func (m *IntervalMap[T]) find(id int) (int, bool) {
	return slices.BinarySearchFunc(m.entries, id, func(e Entry[T], target int) int {
		switch {
		case e.Range.end <= target:
			return -1
		case e.Range.start > target:
			return 1
		}
		return 0
	})
}

// Get returns the payload covering id, or an empty set.
func (m *IntervalMap[T]) Get(id int) sets.Set[T] {
	if i, ok := m.find(id); ok {
		return m.entries[i].Payload.Clone()
	}
	return sets.New[T]()
}

// GetRange returns the partition range covering id.
func (m *IntervalMap[T]) GetRange(id int) (Range, bool) {
	if i, ok := m.find(id); ok {
		return m.entries[i].Range, true
	}
	return Range{}, false
}

// Entries returns a copy of the partition in ascending range order.
func (m *IntervalMap[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(m.entries))
	for i, e := range m.entries {
		out[i] = Entry[T]{Range: e.Range, Payload: e.Payload.Clone()}
	}
	return out
}

// Ranges returns the partition ranges in ascending order.
func (m *IntervalMap[T]) Ranges() []Range {
	out := make([]Range, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Range
	}
	return out
}

// RangesWithin returns the partition ranges enclosed by space. Because space
// is made of ranges that were added to the map, every partition range is either
// inside of it or disjoint from it.
func (m *IntervalMap[T]) RangesWithin(space Space) []Range {
	out := []Range{}
	for _, e := range m.entries {
		if space.Encloses(e.Range) {
			out = append(out, e.Range)
		}
	}
	return out
}

func (m *IntervalMap[T]) Len() int {
	return len(m.entries)
}
