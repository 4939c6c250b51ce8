// Package vlan implements VLAN ranges, VLAN spaces and the interval map used
// to split overlapping per-interface VLAN ranges into a disjoint partition.
package vlan

import (
	"encoding/json"
	"fmt"
)

const (
	// MinID is the lowest usable VLAN id.
	MinID = 1
	// MaxID is the highest usable VLAN id.
	MaxID = 4094
)

// Range is a canonical closed-open range of VLAN ids [start, end).
// The zero value is the empty range.
type Range struct {
	start int
	end   int
}

// ClosedOpen returns the canonical range [lower, upper).
func ClosedOpen(lower, upper int) Range {
	if lower >= upper {
		return Range{}
	}
	return Range{start: lower, end: upper}
}

// Closed returns the canonical form of [lower, upper].
func Closed(lower, upper int) Range {
	return ClosedOpen(lower, upper+1)
}

// Open returns the canonical form of (lower, upper).
func Open(lower, upper int) Range {
	return ClosedOpen(lower+1, upper)
}

// OpenClosed returns the canonical form of (lower, upper].
func OpenClosed(lower, upper int) Range {
	return ClosedOpen(lower+1, upper+1)
}

// Singleton returns the range holding exactly id.
func Singleton(id int) Range {
	return ClosedOpen(id, id+1)
}

// Start is the first VLAN id in the range.
func (r Range) Start() int { return r.start }

// End is the first VLAN id after the range.
func (r Range) End() int { return r.end }

// Last is the last VLAN id in the range.
func (r Range) Last() int { return r.end - 1 }

func (r Range) IsEmpty() bool {
	return r.start >= r.end
}

func (r Range) Len() int {
	if r.IsEmpty() {
		return 0
	}
	return r.end - r.start
}

func (r Range) Contains(id int) bool {
	return id >= r.start && id < r.end
}

// Encloses reports whether other lies completely inside r.
func (r Range) Encloses(other Range) bool {
	if other.IsEmpty() {
		return true
	}
	return other.start >= r.start && other.end <= r.end
}

func (r Range) Overlaps(other Range) bool {
	return !r.Intersection(other).IsEmpty()
}

func (r Range) Intersection(other Range) Range {
	return ClosedOpen(max(r.start, other.start), min(r.end, other.end))
}

// Compare orders ranges by start, then by end.
func (r Range) Compare(other Range) int {
	switch {
	case r.start < other.start:
		return -1
	case r.start > other.start:
		return 1
	case r.end < other.end:
		return -1
	case r.end > other.end:
		return 1
	}
	return 0
}

func (r Range) String() string {
	if r.IsEmpty() {
		return "[)"
	}
	return fmt.Sprintf("[%d,%d)", r.start, r.end)
}

// Interval returns r as raw closed-open bounds.
func (r Range) Interval() Interval {
	return Interval{
		Lower: Bound{Value: r.start, Closed: true},
		Upper: Bound{Value: r.end},
	}
}

type rangeDocument struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(rangeDocument{Start: r.start, End: r.end})
}

// UnmarshalJSON only accepts non-empty closed-open ranges.
func (r *Range) UnmarshalJSON(data []byte) error {
	var doc rangeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error decoding vlan range: %w", err)
	}
	if doc.Start >= doc.End {
		return fmt.Errorf("vlan range [%d,%d): %w", doc.Start, doc.End, ErrEmptyRange)
	}
	*r = Range{start: doc.Start, end: doc.End}
	return nil
}

// Bound is one end of an Interval.
type Bound struct {
	Value  int
	Closed bool
}

// Interval is a VLAN interval with arbitrary bound types, as supplied by callers
// before canonicalization.
type Interval struct {
	Lower Bound
	Upper Bound
}

// Canonical returns the closed-open form of the interval.
func (i Interval) Canonical() Range {
	lower := i.Lower.Value
	if !i.Lower.Closed {
		lower++
	}
	upper := i.Upper.Value
	if i.Upper.Closed {
		upper++
	}
	return ClosedOpen(lower, upper)
}

// IsCanonical reports whether the interval is already written closed-open.
func (i Interval) IsCanonical() bool {
	return i.Lower.Closed && !i.Upper.Closed
}

func (i Interval) String() string {
	left, right := "(", ")"
	if i.Lower.Closed {
		left = "["
	}
	if i.Upper.Closed {
		right = "]"
	}
	return fmt.Sprintf("%s%d,%d%s", left, i.Lower.Value, i.Upper.Value, right)
}
