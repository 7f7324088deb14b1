package binder

import (
	"astnames/internal/shared/util"
)

// NameSet is the accumulator of one traversal.
type NameSet map[string]struct{}

func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, name := range names {
		s.Add(name)
	}
	return s
}

func (s NameSet) Add(name string) {
	s[name] = struct{}{}
}

// Remove drops name. Removing a name that was never added is a no-op.
func (s NameSet) Remove(name string) {
	if _, ok := s[name]; ok {
		delete(s, name)
	}
}

func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s NameSet) Len() int {
	return len(s)
}

func (s NameSet) Sorted() []string {
	return util.SortedStringKeys(s)
}

func (s NameSet) Equal(other NameSet) bool {
	if len(s) != len(other) {
		return false
	}
	for name := range s {
		if !other.Has(name) {
			return false
		}
	}
	return true
}
