// Package natskv implements the ledger over NATS JetStream key-value buckets.
// Each key category maps to one bucket created with history retention, so the
// ledger's native per-key revision history backs history queries.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/foodtrace/ledger"
)

// historyDepth is the number of revisions retained per key, the JetStream KV
// maximum.
const historyDepth = 64

// Ledger is a NATS JetStream KV implementation of ledger.Ledger.
type Ledger struct {
	js     jetstream.JetStream
	prefix string

	mu      sync.Mutex
	buckets map[string]jetstream.KeyValue
}

// New returns a ledger whose buckets are named <prefix>_<CATEGORY>. Buckets
// are created on first use.
func New(js jetstream.JetStream, prefix string) *Ledger {
	return &Ledger{
		js:      js,
		prefix:  prefix,
		buckets: make(map[string]jetstream.KeyValue),
	}
}

func (l *Ledger) bucket(ctx context.Context, category string) (jetstream.KeyValue, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if kv, ok := l.buckets[category]; ok {
		return kv, nil
	}

	name := fmt.Sprintf("%s_%s", l.prefix, strings.ToUpper(category))
	kv, err := l.js.KeyValue(ctx, name)
	if err != nil {
		// Bucket doesn't exist, create it
		kv, err = l.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      name,
			Description: fmt.Sprintf("foodtrace %s ledger", strings.ToLower(category)),
			History:     historyDepth,
		})
		if err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", name, err)
		}
	}

	l.buckets[category] = kv
	return kv, nil
}

// Get implements ledger.Ledger. Absent keys return (nil, nil).
func (l *Ledger) Get(ctx context.Context, key ledger.Key) ([]byte, error) {
	kv, err := l.bucket(ctx, key.Category)
	if err != nil {
		return nil, err
	}

	entry, err := kv.Get(ctx, key.ID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s/%s: %w", key.Category, key.ID, err)
	}

	return entry.Value(), nil
}

// Put implements ledger.Ledger.
func (l *Ledger) Put(ctx context.Context, key ledger.Key, value []byte) error {
	kv, err := l.bucket(ctx, key.Category)
	if err != nil {
		return err
	}

	if _, err := kv.Put(ctx, key.ID, value); err != nil {
		return fmt.Errorf("put %s/%s: %w", key.Category, key.ID, err)
	}
	return nil
}

// Delete implements ledger.Ledger. JetStream records a delete marker, which
// surfaces as a Deleted modification in history queries.
func (l *Ledger) Delete(ctx context.Context, key ledger.Key) error {
	kv, err := l.bucket(ctx, key.Category)
	if err != nil {
		return err
	}

	if err := kv.Delete(ctx, key.ID); err != nil {
		return fmt.Errorf("delete %s/%s: %w", key.Category, key.ID, err)
	}
	return nil
}

// Range implements ledger.Ledger. Keys are listed eagerly, values fetched
// lazily as the cursor advances; entries deleted mid-iteration are skipped.
func (l *Ledger) Range(ctx context.Context, category string) (ledger.Cursor, error) {
	kv, err := l.bucket(ctx, category)
	if err != nil {
		return nil, err
	}

	keys, err := kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return &rangeCursor{}, nil
		}
		return nil, fmt.Errorf("list keys %s: %w", category, err)
	}

	return &rangeCursor{ctx: ctx, kv: kv, category: category, keys: keys}, nil
}

// History implements ledger.Ledger. JetStream returns revisions oldest first;
// the revision number serves as the ledger-native transaction id.
func (l *Ledger) History(ctx context.Context, key ledger.Key) (ledger.HistoryCursor, error) {
	kv, err := l.bucket(ctx, key.Category)
	if err != nil {
		return nil, err
	}

	entries, err := kv.History(ctx, key.ID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return &historyCursor{}, nil
		}
		return nil, fmt.Errorf("history %s/%s: %w", key.Category, key.ID, err)
	}

	return &historyCursor{entries: entries}, nil
}

type rangeCursor struct {
	ctx      context.Context
	kv       jetstream.KeyValue
	category string
	keys     []string

	pos     int
	current ledger.Entry
	err     error
	closed  bool
}

func (c *rangeCursor) Next() bool {
	for !c.closed && c.err == nil && c.pos < len(c.keys) {
		key := c.keys[c.pos]
		c.pos++

		entry, err := c.kv.Get(c.ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			c.err = fmt.Errorf("get %s/%s: %w", c.category, key, err)
			return false
		}

		c.current = ledger.Entry{
			Key:   ledger.Key{Category: c.category, ID: key},
			Value: entry.Value(),
		}
		return true
	}
	return false
}

func (c *rangeCursor) Entry() ledger.Entry { return c.current }
func (c *rangeCursor) Err() error          { return c.err }

func (c *rangeCursor) Close() error {
	c.closed = true
	return nil
}

type historyCursor struct {
	entries []jetstream.KeyValueEntry
	pos     int
	closed  bool
}

func (c *historyCursor) Next() bool {
	if c.closed || c.pos >= len(c.entries) {
		return false
	}
	c.pos++
	return true
}

func (c *historyCursor) Modification() ledger.Modification {
	entry := c.entries[c.pos-1]
	deleted := entry.Operation() != jetstream.KeyValuePut
	mod := ledger.Modification{
		TxID:      strconv.FormatUint(entry.Revision(), 10),
		Timestamp: entry.Created(),
		Deleted:   deleted,
	}
	if !deleted {
		mod.Value = entry.Value()
	}
	return mod
}

func (c *historyCursor) Err() error { return nil }

func (c *historyCursor) Close() error {
	c.closed = true
	return nil
}
