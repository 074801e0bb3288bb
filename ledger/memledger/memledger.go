// Package memledger provides an in-memory Ledger with full per-key history.
// It backs tests and local experiments; it keeps the same observable
// semantics as the production ledgers (absent reads, delete markers, native
// key ordering) but none of their durability.
package memledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/foodtrace/ledger"
)

// Ledger is a mutex-guarded in-memory ledger. The zero value is not usable;
// call New.
type Ledger struct {
	mu      sync.Mutex
	live    map[ledger.Key][]byte
	history map[ledger.Key][]ledger.Modification
	now     func() time.Time
}

// New returns an empty in-memory ledger.
func New() *Ledger {
	return &Ledger{
		live:    make(map[ledger.Key][]byte),
		history: make(map[ledger.Key][]ledger.Modification),
		now:     time.Now,
	}
}

// Get implements ledger.Ledger. Absent keys return (nil, nil).
func (l *Ledger) Get(_ context.Context, key ledger.Key) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	value, ok := l.live[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put implements ledger.Ledger, recording the write in the key's history.
func (l *Ledger) Put(_ context.Context, key ledger.Key, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	l.live[key] = stored
	l.history[key] = append(l.history[key], ledger.Modification{
		Value:     stored,
		TxID:      uuid.New().String(),
		Timestamp: l.now(),
	})
	return nil
}

// Delete implements ledger.Ledger. The live entry is removed and a delete
// marker is appended to the key's history.
func (l *Ledger) Delete(_ context.Context, key ledger.Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.live, key)
	l.history[key] = append(l.history[key], ledger.Modification{
		TxID:      uuid.New().String(),
		Timestamp: l.now(),
		Deleted:   true,
	})
	return nil
}

// Range implements ledger.Ledger. The native key order of this ledger is
// lexicographic by id, so iteration is deterministic.
func (l *Ledger) Range(_ context.Context, category string) (ledger.Cursor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]ledger.Entry, 0, len(l.live))
	for key, value := range l.live {
		if key.Category != category {
			continue
		}
		out := make([]byte, len(value))
		copy(out, value)
		entries = append(entries, ledger.Entry{Key: key, Value: out})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key.ID < entries[j].Key.ID })

	return &rangeCursor{entries: entries}, nil
}

// History implements ledger.Ledger, yielding modifications oldest first.
func (l *Ledger) History(_ context.Context, key ledger.Key) (ledger.HistoryCursor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	mods := make([]ledger.Modification, len(l.history[key]))
	copy(mods, l.history[key])

	return &historyCursor{mods: mods}, nil
}

type rangeCursor struct {
	entries []ledger.Entry
	pos     int
	closed  bool
}

func (c *rangeCursor) Next() bool {
	if c.closed || c.pos >= len(c.entries) {
		return false
	}
	c.pos++
	return true
}

func (c *rangeCursor) Entry() ledger.Entry { return c.entries[c.pos-1] }
func (c *rangeCursor) Err() error          { return nil }

func (c *rangeCursor) Close() error {
	c.closed = true
	return nil
}

type historyCursor struct {
	mods   []ledger.Modification
	pos    int
	closed bool
}

func (c *historyCursor) Next() bool {
	if c.closed || c.pos >= len(c.mods) {
		return false
	}
	c.pos++
	return true
}

func (c *historyCursor) Modification() ledger.Modification { return c.mods[c.pos-1] }
func (c *historyCursor) Err() error                        { return nil }

func (c *historyCursor) Close() error {
	c.closed = true
	return nil
}
