package sequence

import "container/heap"

// Item is an entry held by a MinQueue. Callers keep the pointer returned by
// Enqueue if they need to inspect the entry later.
type Item[T any] struct {
	Value    T
	Priority int64
	seq      uint64
	index    int
}

type minHeap[T any] struct {
	items []*Item[T]
}

func (h *minHeap[T]) Len() int { return len(h.items) }

func (h *minHeap[T]) Less(i, j int) bool {
	if h.items[i].Priority != h.items[j].Priority {
		return h.items[i].Priority < h.items[j].Priority
	}
	// Equal priorities dequeue in insertion order.
	return h.items[i].seq < h.items[j].seq
}

func (h *minHeap[T]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *minHeap[T]) Push(x any) {
	item := x.(*Item[T])
	item.index = len(h.items)
	h.items = append(h.items, item)
}

func (h *minHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	h.items = old[0 : n-1]
	return item
}

// MinQueue is a priority queue that dequeues the lowest priority first.
// Entries with equal priority come out in insertion order, which keeps
// consumers deterministic when many entries share a deadline.
type MinQueue[T any] struct {
	h       minHeap[T]
	nextSeq uint64
}

func NewMinQueue[T any]() *MinQueue[T] {
	q := &MinQueue[T]{}
	heap.Init(&q.h)
	return q
}

func (q *MinQueue[T]) Enqueue(value T, priority int64) *Item[T] {
	item := &Item[T]{
		Value:    value,
		Priority: priority,
		seq:      q.nextSeq,
	}
	q.nextSeq++
	heap.Push(&q.h, item)
	return item
}

func (q *MinQueue[T]) Dequeue() (T, bool) {
	if q.h.Len() == 0 {
		var zero T
		return zero, false
	}
	item := heap.Pop(&q.h).(*Item[T])
	return item.Value, true
}

func (q *MinQueue[T]) Peek() (T, bool) {
	if q.h.Len() == 0 {
		var zero T
		return zero, false
	}
	return q.h.items[0].Value, true
}

// PeekPriority returns the priority of the head entry without removing it.
func (q *MinQueue[T]) PeekPriority() (int64, bool) {
	if q.h.Len() == 0 {
		return 0, false
	}
	return q.h.items[0].Priority, true
}

func (q *MinQueue[T]) Len() int { return q.h.Len() }

func (q *MinQueue[T]) IsEmpty() bool { return q.h.Len() == 0 }
