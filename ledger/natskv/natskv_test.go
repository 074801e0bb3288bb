package natskv

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/foodtrace/ledger"
)

// newTestLedger starts an embedded JetStream server for the duration of one
// test and returns a ledger bound to it.
func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	opts := &server.Options{
		Port:      -1, // Random available port
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
		NoSigs:    true,
	}

	ns, err := server.NewServer(opts)
	require.NoError(t, err)

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("embedded NATS server failed to start")
	}

	conn, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	js, err := jetstream.New(conn)
	require.NoError(t, err)

	return New(js, "FOODTRACE_TEST")
}

func TestGetAbsent(t *testing.T) {
	l := newTestLedger(t)

	value, err := l.Get(context.Background(), ledger.AssetKey("missing"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	key := ledger.AssetKey("a1")

	require.NoError(t, l.Put(ctx, key, []byte("v1")))

	value, err := l.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), value)

	require.NoError(t, l.Delete(ctx, key))

	value, err = l.Get(ctx, key)
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestRange(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	require.NoError(t, l.Put(ctx, ledger.AssetKey("a"), []byte("1")))
	require.NoError(t, l.Put(ctx, ledger.AssetKey("b"), []byte("2")))
	require.NoError(t, l.Put(ctx, ledger.Key{Category: "Other", ID: "c"}, []byte("3")))

	cur, err := l.Range(ctx, ledger.CategoryAsset)
	require.NoError(t, err)
	defer cur.Close()

	seen := map[string][]byte{}
	for cur.Next() {
		entry := cur.Entry()
		require.Equal(t, ledger.CategoryAsset, entry.Key.Category)
		seen[entry.Key.ID] = entry.Value
	}
	require.NoError(t, cur.Err())
	require.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, seen)
}

func TestRangeEmpty(t *testing.T) {
	l := newTestLedger(t)

	cur, err := l.Range(context.Background(), ledger.CategoryAsset)
	require.NoError(t, err)
	defer cur.Close()

	require.False(t, cur.Next())
	require.NoError(t, cur.Err())
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	key := ledger.AssetKey("a1")

	require.NoError(t, l.Put(ctx, key, []byte("v1")))
	require.NoError(t, l.Put(ctx, key, []byte("v2")))
	require.NoError(t, l.Delete(ctx, key))

	cur, err := l.History(ctx, key)
	require.NoError(t, err)
	defer cur.Close()

	var mods []ledger.Modification
	for cur.Next() {
		mods = append(mods, cur.Modification())
	}
	require.NoError(t, cur.Err())
	require.Len(t, mods, 3)

	require.Equal(t, []byte("v1"), mods[0].Value)
	require.Equal(t, []byte("v2"), mods[1].Value)
	require.True(t, mods[2].Deleted)
	require.Empty(t, mods[2].Value)

	// Revisions serve as the ledger-native transaction ids.
	require.NotEmpty(t, mods[0].TxID)
	require.NotEqual(t, mods[0].TxID, mods[1].TxID)
}

func TestHistoryUnknownKey(t *testing.T) {
	l := newTestLedger(t)

	cur, err := l.History(context.Background(), ledger.AssetKey("missing"))
	require.NoError(t, err)
	defer cur.Close()

	require.False(t, cur.Next())
	require.NoError(t, cur.Err())
}
