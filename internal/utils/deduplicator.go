package utils

import (
	"sync"
	"time"
)

// DedupState describes what a Deduplicator knows about a key
type DedupState int

const (
	DedupNew     DedupState = iota // key reserved for the caller
	DedupPending                   // another request holds the key
	DedupDone                      // key completed; the stored id is returned
)

type dedupEntry struct {
	id   uint
	done bool
	at   time.Time
}

// Deduplicator remembers client request keys for a while so a retried
// submission resolves to the record the first attempt created
type Deduplicator struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]dedupEntry
	now     func() time.Time
}

// NewDeduplicator keeps keys for ttl after they were reserved
func NewDeduplicator(ttl time.Duration) *Deduplicator {
	return &Deduplicator{ttl: ttl, entries: make(map[string]dedupEntry), now: time.Now}
}

// Begin reserves key. On DedupDone the id of the first result is returned.
func (d *Deduplicator) Begin(key string) (uint, DedupState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if e, ok := d.entries[key]; ok && now.Sub(e.at) < d.ttl {
		if e.done {
			return e.id, DedupDone
		}
		return 0, DedupPending
	}

	// Cleanup old entries if map gets too big
	if len(d.entries) > 10000 {
		for k, e := range d.entries {
			if now.Sub(e.at) >= d.ttl {
				delete(d.entries, k)
			}
		}
	}
	d.entries[key] = dedupEntry{at: now}
	return 0, DedupNew
}

// Complete records the id produced for a reserved key
func (d *Deduplicator) Complete(key string, id uint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.entries[key]; ok {
		e.id, e.done = id, true
		d.entries[key] = e
	}
}

// Abort releases a reserved key so the client may retry
func (d *Deduplicator) Abort(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.entries[key]; ok && !e.done {
		delete(d.entries, key)
	}
}
