package slice

import (
	"reflect"
	"testing"
)

type pair struct {
	Hostname  string
	Interface string
}

// TestContains calls Contains with various inputs.
func TestContains(t *testing.T) {
	var stringSlice = []string{"hello", "my", "name", "is", "Joe", "H!4#fawP_4-?", ""}

	// Test existing string
	if !Contains(stringSlice, "name") {
		t.Fatalf("string '%s' exists in slice %v", "name", stringSlice)
	}
	// Test existing string with wrong case
	if Contains(stringSlice, "joe") {
		t.Fatalf("string '%s' doesn't exist in slice %v", "joe", stringSlice)
	}
	// Test empty string
	if !Contains(stringSlice, "") {
		t.Fatalf("empty string '%s' exists in slice %v", "", stringSlice)
	}
	// Test uninitialized slice
	var stringSliceUnitialized []string
	if Contains(stringSliceUnitialized, "Hello") {
		t.Fatalf("string array is empty and doesn't contain string '%s'", "Hello")
	}
	// Test structs
	pairs := []pair{{"a", "eth0"}, {"b", "eth1"}}
	if !Contains(pairs, pair{"b", "eth1"}) {
		t.Fatalf("pair %v exists in slice %v", pair{"b", "eth1"}, pairs)
	}
	if IndexOf(pairs, pair{"b", "eth0"}) != -1 {
		t.Fatalf("pair %v doesn't exist in slice %v", pair{"b", "eth0"}, pairs)
	}
}

// TestMapFilter calls Map and Filter.
func TestMapFilter(t *testing.T) {
	pairs := []pair{{"a", "eth0"}, {"b", "eth1"}, {"c", "eth0"}}
	hosts := Map(pairs, func(p pair) string { return p.Hostname })
	if !reflect.DeepEqual(hosts, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected mapping result %v", hosts)
	}
	eth0 := Filter(pairs, func(p pair) bool { return p.Interface == "eth0" })
	if !reflect.DeepEqual(eth0, []pair{{"a", "eth0"}, {"c", "eth0"}}) {
		t.Fatalf("unexpected filter result %v", eth0)
	}
}
