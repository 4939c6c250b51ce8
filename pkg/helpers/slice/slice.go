package slice

import (
	"github.com/google/go-cmp/cmp"
)

// Contains returns true if a slice contains an element
func Contains[T any](elems []T, v T) bool {
	return IndexOf(elems, v) >= 0
}

// IndexOf returns the index of an element in a slice, if exists (otherwise -1)
func IndexOf[T any](elems []T, v T) int {
	for i, s := range elems {
		if cmp.Equal(v, s) {
			return i
		}
	}
	return -1
}

func Map[T any, R any](elems []T, fn func(T) R) []R {
	result := make([]R, len(elems))
	for i, e := range elems {
		result[i] = fn(e)
	}
	return result
}

// Filter keeps the elements fn accepts.
func Filter[T any](elems []T, fn func(T) bool) []T {
	result := make([]T, 0, len(elems))
	for _, e := range elems {
		if fn(e) {
			result = append(result, e)
		}
	}
	return result
}
