package util

import (
	"reflect"
	"testing"
)

func TestSortedStringKeys(t *testing.T) {
	got := SortedStringKeys(map[string]int{"b": 1, "a": 2, "c": 3})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected keys: %v", got)
	}
}

func TestUniqueSortedStrings(t *testing.T) {
	got := UniqueSortedStrings([]string{"x", "", "a", "x"})
	if !reflect.DeepEqual(got, []string{"a", "x"}) {
		t.Fatalf("unexpected values: %v", got)
	}
}
