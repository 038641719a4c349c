package sequence

import (
	"iter"
	"sort"
)

// Iterator is a generic, chainable iterator over values of type T.
type Iterator[T any] struct {
	seq iter.Seq[T]
}

// From creates an Iterator from a slice.
func From[T any](data []T) *Iterator[T] {
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for _, v := range data {
				if !yield(v) {
					return
				}
			}
		},
	}
}

// FromMap creates an Iterator over the values of a map. Order is undefined.
func FromMap[K comparable, T any](data map[K]T) *Iterator[T] {
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for _, v := range data {
				if !yield(v) {
					return
				}
			}
		},
	}
}

// Keys creates an Iterator over the keys of a map. Order is undefined.
func Keys[K comparable, T any](data map[K]T) *Iterator[K] {
	return &Iterator[K]{
		seq: func(yield func(K) bool) {
			for k := range data {
				if !yield(k) {
					return
				}
			}
		},
	}
}

// Seq exposes the underlying sequence for range-over-func use.
func (i *Iterator[T]) Seq() iter.Seq[T] { return i.seq }

// Filter keeps only values for which pred returns true.
func (i *Iterator[T]) Filter(pred func(T) bool) *Iterator[T] {
	src := i.seq
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for v := range src {
				if pred(v) && !yield(v) {
					return
				}
			}
		},
	}
}

// Collect materializes the iterator into a slice.
func (i *Iterator[T]) Collect() []T {
	var out []T
	for v := range i.seq {
		out = append(out, v)
	}
	return out
}

// Count consumes the iterator and returns the number of values.
func (i *Iterator[T]) Count() int {
	n := 0
	for range i.seq {
		n++
	}
	return n
}

// SortedBy materializes the iterator and sorts the result with less.
func (i *Iterator[T]) SortedBy(less func(a, b T) bool) []T {
	out := i.Collect()
	sort.Slice(out, func(a, b int) bool { return less(out[a], out[b]) })
	return out
}
