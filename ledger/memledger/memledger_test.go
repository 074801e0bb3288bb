package memledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/foodtrace/ledger"
)

func TestGetAbsent(t *testing.T) {
	l := New()

	value, err := l.Get(context.Background(), ledger.AssetKey("missing"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	l := New()
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

func TestRangeIsSortedAndCategoryScoped(t *testing.T) {
	ctx := context.Background()
	l := New()

	require.NoError(t, l.Put(ctx, ledger.AssetKey("b"), []byte("2")))
	require.NoError(t, l.Put(ctx, ledger.AssetKey("a"), []byte("1")))
	require.NoError(t, l.Put(ctx, ledger.Key{Category: "Other", ID: "c"}, []byte("3")))

	cur, err := l.Range(ctx, ledger.CategoryAsset)
	require.NoError(t, err)
	defer cur.Close()

	var ids []string
	for cur.Next() {
		ids = append(ids, cur.Entry().Key.ID)
	}
	require.NoError(t, cur.Err())
	require.Equal(t, []string{"a", "b"}, ids)
}

func TestHistoryRecordsEveryModification(t *testing.T) {
	ctx := context.Background()
	l := New()
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
	require.False(t, mods[0].Deleted)
	require.True(t, mods[2].Deleted)
	require.Empty(t, mods[2].Value)

	for _, mod := range mods {
		require.NotEmpty(t, mod.TxID)
		require.False(t, mod.Timestamp.IsZero())
	}
}

func TestCursorCloseStopsIteration(t *testing.T) {
	ctx := context.Background()
	l := New()

	require.NoError(t, l.Put(ctx, ledger.AssetKey("a"), []byte("1")))
	require.NoError(t, l.Put(ctx, ledger.AssetKey("b"), []byte("2")))

	cur, err := l.Range(ctx, ledger.CategoryAsset)
	require.NoError(t, err)

	require.True(t, cur.Next())
	require.NoError(t, cur.Close())
	require.False(t, cur.Next())
	require.NoError(t, cur.Close()) // idempotent
}
