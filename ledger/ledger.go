// Package ledger abstracts the transactional key-value ledger the contract
// runs against. Consensus, replication, durability and conflict detection all
// belong to the implementation behind this interface; the contract performs a
// single read-modify-write sequence per invocation and holds no locks of its
// own. If two callers race on the same key, the ledger rejects one
// transaction and the caller retries.
package ledger

import (
	"context"
	"time"
)

// CategoryAsset is the key category under which asset records are stored.
const CategoryAsset = "Asset"

// Key is a composite ledger key: a category namespace plus an identifier.
type Key struct {
	Category string
	ID       string
}

// AssetKey returns the composite key for an asset id.
func AssetKey(id string) Key {
	return Key{Category: CategoryAsset, ID: id}
}

// Ledger is the key-value ledger collaborator.
//
// Get returns (nil, nil) when the key is absent; absence is not an error.
// Put and Delete take effect atomically with every other write made in the
// same invocation when the ledger commits.
type Ledger interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, key Key) error

	// Range returns a cursor over every live entry in the category, in the
	// ledger's native key order.
	Range(ctx context.Context, category string) (Cursor, error)

	// History returns a cursor over every recorded modification of the key,
	// oldest first, including delete markers.
	History(ctx context.Context, key Key) (HistoryCursor, error)
}

// Entry is one live (key, value) pair yielded by a range cursor.
type Entry struct {
	Key   Key
	Value []byte
}

// Modification is one historical state of a key. Deleted marks a delete
// marker, in which case Value is empty.
type Modification struct {
	Value     []byte
	TxID      string
	Timestamp time.Time
	Deleted   bool
}

// Cursor iterates a range query. Cursors are lazy, finite and
// non-restartable, and must be released on every exit path:
//
//	cur, err := l.Range(ctx, ledger.CategoryAsset)
//	if err != nil { ... }
//	defer cur.Close()
//	for cur.Next() {
//		use(cur.Entry())
//	}
//	if err := cur.Err(); err != nil { ... }
type Cursor interface {
	// Next advances to the next entry, returning false when the cursor is
	// exhausted or has failed.
	Next() bool
	// Entry returns the current entry. Only valid after Next returns true.
	Entry() Entry
	// Err returns the first error encountered while iterating, if any.
	Err() error
	// Close releases the cursor's resources. Safe to call more than once.
	Close() error
}

// HistoryCursor iterates a history query with the same protocol as Cursor.
type HistoryCursor interface {
	Next() bool
	// Modification returns the current historical state. Only valid after
	// Next returns true.
	Modification() Modification
	Err() error
	Close() error
}
