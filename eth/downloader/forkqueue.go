// Contains the Fork Resolver's bounded log of recent backward-header
// attempts, used to detect when the same peer has failed to rejoin the
// canonical chain across two consecutive fork-resolve attempts.

package downloader

import (
	"sync"

	"gopkg.in/karalabe/cookiejar.v2/collections/prque"
)

// forkResolveLog is a small recency-ordered log of which peer answered the
// most recent fork-resolve requests, backed by a priority queue keyed on a
// monotonically increasing counter so Pop always returns the most recent
// entry first.
type forkResolveLog struct {
	mu  sync.Mutex
	q   *prque.Prque
	ctr float32
}

func newForkResolveLog() *forkResolveLog {
	return &forkResolveLog{q: prque.New()}
}

// record appends peerID as the most recent fork-resolve attempt.
func (f *forkResolveLog) record(peerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctr++
	f.q.Push(peerID, f.ctr)
	if f.q.Size() > 64 {
		f.q.Reset()
		f.q.Push(peerID, f.ctr)
	}
}

// Consecutive reports whether the two most recently recorded fork-resolve
// attempts both came from peerID.
func (f *forkResolveLog) Consecutive(peerID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.q.Size() < 2 {
		return false
	}
	d1, p1 := f.q.Pop()
	d2, p2 := f.q.Pop()
	f.q.Push(d1, p1)
	f.q.Push(d2, p2)
	return d1.(string) == peerID && d2.(string) == peerID
}
