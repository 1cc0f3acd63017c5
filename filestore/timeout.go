package filestore

import (
	"container/heap"
	"io"
	"sync"
	"time"
)

var _ FileStore = &Timeout{}

// Timeout evicts uploads that were not accessed within the TTL. An upload
// is usually read once by the run request referencing it.
type Timeout struct {
	FileStore

	ttl   time.Duration
	mu    sync.Mutex
	queue expiryQueue

	done      chan struct{}
	closeOnce sync.Once
}

// NewTimeout wraps fs, expired files are swept every interval until Close
func NewTimeout(fs FileStore, ttl time.Duration, interval time.Duration) *Timeout {
	t := &Timeout{
		FileStore: fs,
		ttl:       ttl,
		queue:     expiryQueue{index: make(map[string]int)},
		done:      make(chan struct{}),
	}
	go t.sweepLoop(interval)
	return t
}

func (t *Timeout) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			t.sweep(now)
		case <-t.done:
			return
		}
	}
}

// sweep removes every file last accessed before now - ttl
func (t *Timeout) sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	deadline := now.Add(-t.ttl)
	for t.queue.Len() > 0 && t.queue.entries[0].access.Before(deadline) {
		e := heap.Pop(&t.queue).(expiryEntry)
		t.FileStore.Remove(e.id)
		n++
	}
	return n
}

// Close stops the sweep loop, stored files are kept
func (t *Timeout) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return nil
}

func (t *Timeout) Add(name string, r io.Reader) (string, error) {
	id, err := t.FileStore.Add(name, r)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	heap.Push(&t.queue, expiryEntry{id: id, access: time.Now()})
	return id, nil
}

func (t *Timeout) Remove(id string) bool {
	removed := t.FileStore.Remove(id)

	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.queue.index[id]; ok {
		heap.Remove(&t.queue, i)
	}
	return removed
}

// Get refreshes the access time of the file
func (t *Timeout) Get(id string) (string, []byte, error) {
	name, content, err := t.FileStore.Get(id)
	if err != nil {
		return "", nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.queue.index[id]; ok {
		t.queue.entries[i].access = time.Now()
		heap.Fix(&t.queue, i)
	}
	return name, content, nil
}

type expiryEntry struct {
	id     string
	access time.Time
}

// expiryQueue is a min heap on access time with an id to position index
type expiryQueue struct {
	entries []expiryEntry
	index   map[string]int
}

var _ heap.Interface = &expiryQueue{}

func (q *expiryQueue) Len() int {
	return len(q.entries)
}

func (q *expiryQueue) Less(i, j int) bool {
	return q.entries[i].access.Before(q.entries[j].access)
}

func (q *expiryQueue) Swap(i, j int) {
	q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
	q.index[q.entries[i].id] = i
	q.index[q.entries[j].id] = j
}

func (q *expiryQueue) Push(x any) {
	e := x.(expiryEntry)
	q.index[e.id] = len(q.entries)
	q.entries = append(q.entries, e)
}

func (q *expiryQueue) Pop() any {
	e := q.entries[len(q.entries)-1]
	q.entries = q.entries[:len(q.entries)-1]
	delete(q.index, e.id)
	return e
}
