package loop

import "sync"

// correction is a deferred width fix for the edge that was dragged.
type correction struct {
	handle     Handle
	generation uint64
}

// correctionQueue carries corrections from the debounce timer goroutine to
// the UI goroutine.
type correctionQueue struct {
	items []correction
	mu    sync.Mutex
}

func (q *correctionQueue) Push(c correction) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, c)
}

// PopAll removes and returns every queued correction.
func (q *correctionQueue) PopAll() []correction {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *correctionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
