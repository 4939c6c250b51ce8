package maps

import (
	"golang.org/x/exp/slices"
	"k8s.io/apimachinery/pkg/util/sets"
)

func Keys[M ~map[K]V, K comparable, V any](data M) []K {
	result := make([]K, 0, len(data))
	for key := range data {
		result = append(result, key)
	}
	return result
}

// SortedKeys returns the keys of data ordered by compare.
func SortedKeys[M ~map[K]V, K comparable, V any](data M, compare func(a, b K) int) []K {
	result := Keys(data)
	slices.SortFunc(result, compare)
	return result
}

// Invert builds the reverse multimap of a function-like map.
func Invert[K, V comparable](data map[K]V) map[V]sets.Set[K] {
	result := make(map[V]sets.Set[K])
	for k, v := range data {
		if _, ok := result[v]; !ok {
			result[v] = sets.New[K]()
		}
		result[v].Insert(k)
	}
	return result
}
