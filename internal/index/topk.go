package index

import (
	"container/heap"
	"sort"
)

type candidate struct {
	pos      int
	seq      uint64
	distance float64
}

// better задаёт полный порядок результатов: по расстоянию, затем по порядку вставки.
func better(a, b candidate) bool {
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	return a.seq < b.seq
}

// worstFirst — max-heap, на вершине которого худший из отобранных кандидатов.
type worstFirst []candidate

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return better(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// topK держит k лучших кандидатов за O(N log k).
type topK struct {
	k int
	h worstFirst
}

func newTopK(k, n int) *topK {
	capacity := k
	if n < capacity {
		capacity = n
	}
	return &topK{k: k, h: make(worstFirst, 0, capacity)}
}

func (t *topK) offer(c candidate) {
	if len(t.h) < t.k {
		heap.Push(&t.h, c)
		return
	}
	if better(c, t.h[0]) {
		t.h[0] = c
		heap.Fix(&t.h, 0)
	}
}

// sorted возвращает отобранных кандидатов от лучшего к худшему.
func (t *topK) sorted() []candidate {
	out := []candidate(t.h)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}
