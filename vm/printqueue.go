package vm

import (
	"strings"
	"sync"
)

// PrintQueue buffers print output per user until the execution that produced
// it finishes.
type PrintQueue struct {
	mu  sync.Mutex
	buf map[int64]*strings.Builder
}

// NewPrintQueue returns an empty queue.
func NewPrintQueue() *PrintQueue {
	return &PrintQueue{buf: map[int64]*strings.Builder{}}
}

// Append queues s for userID.
func (q *PrintQueue) Append(userID int64, s string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	b, ok := q.buf[userID]
	if !ok {
		b = &strings.Builder{}
		q.buf[userID] = b
	}
	b.WriteString(s)
}

// Flush returns and clears everything queued for userID.
func (q *PrintQueue) Flush(userID int64) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	b, ok := q.buf[userID]
	if !ok {
		return ""
	}
	delete(q.buf, userID)
	return b.String()
}
