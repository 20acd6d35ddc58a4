package ratelimit

import "sync"

// QuotaLedger counts lifetime allowances per user, shared by every
// connection of that user.
type QuotaLedger struct {
	used  map[string]int
	mutex sync.Mutex
}

func NewQuotaLedger() *QuotaLedger {
	return &QuotaLedger{
		used: make(map[string]int),
	}
}

// Take consumes one unit for userID if fewer than limit have been used.
// A limit of zero or less means unlimited and nothing is recorded.
func (q *QuotaLedger) Take(userID string, limit int) (int, bool) {
	if limit <= 0 {
		return 0, true
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	used := q.used[userID]
	if used >= limit {
		return used, false
	}
	q.used[userID] = used + 1
	return used + 1, true
}

// Refund returns a unit taken for a send that did not go through.
func (q *QuotaLedger) Refund(userID string) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.used[userID] > 0 {
		q.used[userID]--
	}
}

func (q *QuotaLedger) Used(userID string) int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.used[userID]
}
