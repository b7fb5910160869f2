// Package pqueue implements an indexed binary heap.
//
// A [Queue] behaves like container/heap but also keeps a map from each
// resident item to its slot, so an arbitrary item can be removed or re-sifted
// in O(log n). Items must be comparable and appear at most once.
//
// Queue is not safe for concurrent use.
package pqueue

// Queue is a min-heap ordered by a caller-supplied less function.
type Queue[T comparable] struct {
	items []T
	index map[T]int
	less  func(a, b T) bool
}

// New returns an empty queue ordered by less. Pop returns an item x such that
// less(y, x) is false for every other resident y.
func New[T comparable](less func(a, b T) bool) *Queue[T] {
	return &Queue[T]{index: make(map[T]int), less: less}
}

// Len returns the number of resident items.
func (q *Queue[T]) Len() int { return len(q.items) }

// Contains reports whether x is resident.
func (q *Queue[T]) Contains(x T) bool {
	_, ok := q.index[x]
	return ok
}

// Push inserts x. It reports false and leaves the queue unchanged if x is
// already resident.
func (q *Queue[T]) Push(x T) bool {
	if _, ok := q.index[x]; ok {
		return false
	}
	q.items = append(q.items, x)
	q.index[x] = len(q.items) - 1
	q.up(len(q.items) - 1)
	return true
}

// Peek returns the minimum without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// Pop removes and returns the minimum.
func (q *Queue[T]) Pop() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.removeAt(0), true
}

// Remove deletes x wherever it sits in the heap. It reports whether x was
// resident.
func (q *Queue[T]) Remove(x T) bool {
	i, ok := q.index[x]
	if !ok {
		return false
	}
	q.removeAt(i)
	return true
}

// Fix restores heap order after the key of x has changed. It reports whether
// x was resident.
func (q *Queue[T]) Fix(x T) bool {
	i, ok := q.index[x]
	if !ok {
		return false
	}
	if !q.down(i) {
		q.up(i)
	}
	return true
}

// Items returns the resident items in heap order. The slice is a copy.
func (q *Queue[T]) Items() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// Clear removes every item.
func (q *Queue[T]) Clear() {
	clear(q.items)
	q.items = q.items[:0]
	clear(q.index)
}

func (q *Queue[T]) removeAt(i int) T {
	x := q.items[i]
	last := len(q.items) - 1
	if i != last {
		q.swap(i, last)
	}
	var zero T
	q.items[last] = zero
	q.items = q.items[:last]
	delete(q.index, x)
	if i != last {
		if !q.down(i) {
			q.up(i)
		}
	}
	return x
}

func (q *Queue[T]) swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.index[q.items[i]] = i
	q.index[q.items[j]] = j
}

func (q *Queue[T]) up(j int) {
	for j > 0 {
		i := (j - 1) / 2
		if !q.less(q.items[j], q.items[i]) {
			break
		}
		q.swap(i, j)
		j = i
	}
}

// down sifts item i towards the leaves and reports whether it moved.
func (q *Queue[T]) down(i0 int) bool {
	i := i0
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			break
		}
		j := l
		if r := l + 1; r < n && q.less(q.items[r], q.items[l]) {
			j = r
		}
		if !q.less(q.items[j], q.items[i]) {
			break
		}
		q.swap(i, j)
		i = j
	}
	return i > i0
}
