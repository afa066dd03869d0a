package schedule

import (
	"container/heap"
	"time"
)

type item struct {
	id     string
	at     time.Time
	seq    uint64
	offset int
}

// queue is a min-heap on (at, seq). seq keeps insertion order for equal
// fire times so events created in a batch start in creation order.
type queue []*item

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].offset = i
	q[j].offset = j
}

func (q *queue) Push(x any) {
	it := x.(*item)
	it.offset = len(*q)
	*q = append(*q, it)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.offset = -1
	*q = old[:n-1]
	return it
}

func (q *queue) peek() *item {
	if len(*q) == 0 {
		return nil
	}
	return (*q)[0]
}

var _ heap.Interface = (*queue)(nil)
