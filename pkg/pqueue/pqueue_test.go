package pqueue

import (
	"math/rand/v2"
	"slices"
	"testing"
)

type item struct {
	key int
	id  int
}

func byKey(a, b *item) bool {
	if a.key != b.key {
		return a.key < b.key
	}
	return a.id < b.id
}

func checkInvariants(t *testing.T, q *Queue[*item]) {
	t.Helper()
	if len(q.index) != len(q.items) {
		t.Fatalf("index has %d entries, heap has %d", len(q.index), len(q.items))
	}
	for i, x := range q.items {
		if q.index[x] != i {
			t.Fatalf("item %d recorded at %d, actually at %d", x.id, q.index[x], i)
		}
		if i > 0 && q.less(x, q.items[(i-1)/2]) {
			t.Fatalf("heap order broken at %d", i)
		}
	}
}

func TestQueueBasic(t *testing.T) {
	q := New(byKey)
	if _, ok := q.Peek(); ok {
		t.Error("Peek on empty queue succeeded")
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop on empty queue succeeded")
	}

	a, b, c := &item{key: 5, id: 1}, &item{key: 1, id: 2}, &item{key: 3, id: 3}
	for _, x := range []*item{a, b, c} {
		if !q.Push(x) {
			t.Fatalf("Push(%d) rejected", x.id)
		}
	}
	if q.Push(a) {
		t.Error("duplicate Push accepted")
	}
	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}
	if top, _ := q.Peek(); top != b {
		t.Errorf("Peek() = %d, want %d", top.id, b.id)
	}

	if !q.Remove(c) || q.Contains(c) {
		t.Error("Remove(c) failed")
	}
	if q.Remove(c) {
		t.Error("second Remove(c) succeeded")
	}

	a.key = 0
	if !q.Fix(a) {
		t.Error("Fix(a) failed")
	}
	if top, _ := q.Pop(); top != a {
		t.Errorf("Pop() = %d, want %d after Fix", top.id, a.id)
	}
	if q.Fix(a) {
		t.Error("Fix on popped item succeeded")
	}
	checkInvariants(t, q)

	q.Clear()
	if q.Len() != 0 || q.Contains(b) {
		t.Error("Clear left items behind")
	}
}

func TestQueueRandomized(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	q := New(byKey)
	var resident []*item
	next := 0

	for step := range 5000 {
		switch op := r.IntN(10); {
		case op < 5:
			x := &item{key: r.IntN(50), id: next}
			next++
			q.Push(x)
			resident = append(resident, x)
		case op < 7 && len(resident) > 0:
			want := slices.MinFunc(resident, func(a, b *item) int {
				if byKey(a, b) {
					return -1
				}
				if byKey(b, a) {
					return 1
				}
				return 0
			})
			got, ok := q.Pop()
			if !ok || got != want {
				t.Fatalf("step %d: Pop() = %v, want %v", step, got, want)
			}
			resident = slices.DeleteFunc(resident, func(x *item) bool { return x == got })
		case op < 9 && len(resident) > 0:
			i := r.IntN(len(resident))
			if !q.Remove(resident[i]) {
				t.Fatalf("step %d: Remove failed", step)
			}
			resident = slices.Delete(resident, i, i+1)
		case len(resident) > 0:
			x := resident[r.IntN(len(resident))]
			x.key = r.IntN(50)
			q.Fix(x)
		}
		checkInvariants(t, q)
		if q.Len() != len(resident) {
			t.Fatalf("step %d: Len() = %d, want %d", step, q.Len(), len(resident))
		}
	}
}

func TestQueueItemsIsCopy(t *testing.T) {
	q := New(byKey)
	q.Push(&item{key: 2, id: 1})
	q.Push(&item{key: 1, id: 2})
	items := q.Items()
	items[0] = nil
	if top, _ := q.Peek(); top == nil {
		t.Error("Items() aliases the heap")
	}
}
