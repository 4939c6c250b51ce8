package vlan

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// Space is a set of VLAN ids kept as sorted, disjoint, non-adjacent ranges.
type Space struct {
	ranges []Range
}

// NewSpace returns the union of the given ranges.
func NewSpace(ranges ...Range) Space {
	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if !r.IsEmpty() {
			sorted = append(sorted, r)
		}
	}
	slices.SortFunc(sorted, Range.Compare)

	merged := make([]Range, 0, len(sorted))
	for _, r := range sorted {
		if n := len(merged); n > 0 && r.start <= merged[n-1].end {
			merged[n-1].end = max(merged[n-1].end, r.end)
			continue
		}
		merged = append(merged, r)
	}
	return Space{ranges: merged}
}

// AllVLANs is 1-4094.
func AllVLANs() Space {
	return NewSpace(Closed(MinID, MaxID))
}

// ParseSpace parses lists like "1-10,20,30-40". An empty string is the empty space.
func ParseSpace(s string) (Space, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Space{}, nil
	}
	ranges := []Range{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lower, upper, isRange := strings.Cut(item, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lower))
		if err != nil {
			return Space{}, fmt.Errorf("invalid vlan %q: %w", item, err)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(strings.TrimSpace(upper))
			if err != nil {
				return Space{}, fmt.Errorf("invalid vlan range %q: %w", item, err)
			}
		}
		if last < first {
			return Space{}, fmt.Errorf("invalid vlan range %q: %w", item, ErrEmptyRange)
		}
		if first < MinID || last > MaxID {
			return Space{}, fmt.Errorf("invalid vlan range %q: %w", item, ErrOutOfBounds)
		}
		ranges = append(ranges, Closed(first, last))
	}
	return NewSpace(ranges...), nil
}

func (s Space) IsEmpty() bool {
	return len(s.ranges) == 0
}

// Ranges returns a copy of the disjoint ranges, in ascending order.
func (s Space) Ranges() []Range {
	return append([]Range{}, s.ranges...)
}

func (s Space) Contains(id int) bool {
	_, found := slices.BinarySearchFunc(s.ranges, id, func(r Range, target int) int {
		switch {
		case r.end <= target:
			return -1
		case r.start > target:
			return 1
		}
		return 0
	})
	return found
}

// Encloses reports whether every id of r belongs to the space.
func (s Space) Encloses(r Range) bool {
	if r.IsEmpty() {
		return true
	}
	for _, own := range s.ranges {
		if own.Encloses(r) {
			return true
		}
	}
	return false
}

func (s Space) Intersection(other Space) Space {
	result := []Range{}
	for _, a := range s.ranges {
		for _, b := range other.ranges {
			if i := a.Intersection(b); !i.IsEmpty() {
				result = append(result, i)
			}
		}
	}
	return NewSpace(result...)
}

func (s Space) String() string {
	items := make([]string, 0, len(s.ranges))
	for _, r := range s.ranges {
		if r.Len() == 1 {
			items = append(items, strconv.Itoa(r.start))
			continue
		}
		items = append(items, fmt.Sprintf("%d-%d", r.start, r.Last()))
	}
	return strings.Join(items, ",")
}
