// Package set holds ordered sets used to compare directory listings.
package set

import (
	"cmp"
	"fmt"
	"slices"
)

type Set[T cmp.Ordered] map[T]struct{}

func New[T cmp.Ordered](elements ...T) Set[T] {
	set := make(Set[T], len(elements))
	for _, e := range elements {
		set.Add(e)
	}
	return set
}

func (set Set[T]) Add(e T) {
	set[e] = struct{}{}
}

func (set Set[T]) Has(e T) bool {
	_, ok := set[e]
	return ok
}

// Sort returns the elements in ascending order.
func (set Set[T]) Sort() []T {
	elements := make([]T, 0, len(set))
	for e := range set {
		elements = append(elements, e)
	}
	slices.Sort(elements)
	return elements
}

// Not returns the elements of a missing from b.
func (a Set[T]) Not(b Set[T]) Set[T] {
	c := make(Set[T])
	for e := range a {
		if !b.Has(e) {
			c.Add(e)
		}
	}
	return c
}

func (set Set[T]) String() string {
	return fmt.Sprintf("%d", len(set))
}
