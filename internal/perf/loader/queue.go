package loader

// pending is a request waiting for (or undergoing) a load.
type pending struct {
	id       string
	priority int
	seq      uint64
	index    int // heap index, -1 once dispatched
	done     chan struct{}
	err      error
}

// requestQueue is a max-heap on priority, FIFO among equal priorities.
type requestQueue []*pending

func (q requestQueue) Len() int { return len(q) }

func (q requestQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q requestQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *requestQueue) Push(x any) {
	p := x.(*pending)
	p.index = len(*q)
	*q = append(*q, p)
}

func (q *requestQueue) Pop() any {
	old := *q
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	p.index = -1
	*q = old[:n-1]
	return p
}
