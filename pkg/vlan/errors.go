package vlan

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyRange   = errors.New("vlan range is empty")
	ErrNonCanonical = errors.New("vlan range is not closed-open")
	ErrOverlap      = errors.New("vlan ranges overlap")
	ErrOutOfBounds  = fmt.Errorf("vlan id outside %d-%d", MinID, MaxID)
)

// OverlapError names the two keys of a finalized partition that intersect.
type OverlapError struct {
	First  Range
	Second Range
}

func (e OverlapError) Error() string {
	return fmt.Sprintf("%v: %s and %s", ErrOverlap, e.First, e.Second)
}

func (e OverlapError) Unwrap() error {
	return ErrOverlap
}

// IntervalError reports a key of a finalized partition that is rejected.
type IntervalError struct {
	Interval Interval
	Err      error
}

func (e *IntervalError) Error() string {
	return fmt.Sprintf("invalid vlan partition key %s: %v", e.Interval, e.Err)
}

func (e *IntervalError) Unwrap() error {
	return e.Err
}
