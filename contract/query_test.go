package contract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/foodtrace/contract"
)

func TestGetAllAssetsFiltersByOrganisation(t *testing.T) {
	ctx := context.Background()
	c := newContract(t)

	org1First, err := c.CreateAsset(ctx, org1Caller(), "Chicken", "Cranfield", 0.5, 18, "23/12/23", "a")
	require.NoError(t, err)
	org1Second, err := c.CreateAsset(ctx, org1Caller(), "Beef", "Cranfield", 1.2, 4, "25/12/23", "b")
	require.NoError(t, err)
	_, err = c.CreateAsset(ctx, org2Caller(), "Milk", "London", 1.0, 4, "20/12/23", "c")
	require.NoError(t, err)

	assets, err := c.GetAllAssets(ctx, org1Caller())
	require.NoError(t, err)
	require.Len(t, assets, 2)

	ids := map[string]bool{}
	for _, a := range assets {
		require.Equal(t, "Org1", a.OwnerOrg)
		ids[a.ID] = true
	}
	require.True(t, ids[org1First.AssetID])
	require.True(t, ids[org1Second.AssetID])
}

func TestGetAllAssetsEmptyLedger(t *testing.T) {
	c := newContract(t)

	assets, err := c.GetAllAssets(context.Background(), org1Caller())
	require.NoError(t, err)
	require.Empty(t, assets)
}

func TestGetProductHistory(t *testing.T) {
	ctx := context.Background()
	c := newContract(t)

	created, err := c.CreateAsset(ctx, org1Caller(), "Chicken", "Cranfield", 0.5, 18, "23/12/23", "2023-01-01")
	require.NoError(t, err)
	id := created.AssetID

	_, err = c.UpdateLocation(ctx, org1Caller(), id, "London")
	require.NoError(t, err)

	history, err := c.GetProductHistory(ctx, org1Caller(), id)
	require.NoError(t, err)
	require.Len(t, history, 2) // creation plus one update

	_, err = c.RequestTransfer(ctx, org1Caller(), "Org2", id)
	require.NoError(t, err)
	_, err = c.TransferComplete(ctx, org2Caller(), id, "bob", "Paris", 4, 0.45)
	require.NoError(t, err)
	_, err = c.UpdateTemperature(ctx, org2Caller(), id, 3)
	require.NoError(t, err)

	t.Run("snapshots are filtered per snapshot, not against current state", func(t *testing.T) {
		// Org2 now owns the asset, but the snapshots recorded while Org1
		// held custody stay invisible to it.
		org2History, err := c.GetProductHistory(ctx, org2Caller(), id)
		require.NoError(t, err)
		require.Len(t, org2History, 2)
		for _, snapshot := range org2History {
			require.Equal(t, "Org2", snapshot.OwnerOrg)
		}

		// The prior owner still sees exactly the snapshots from its own
		// custody period.
		org1History, err := c.GetProductHistory(ctx, org1Caller(), id)
		require.NoError(t, err)
		require.Len(t, org1History, 3)
		for _, snapshot := range org1History {
			require.Equal(t, "Org1", snapshot.OwnerOrg)
		}
	})

	t.Run("snapshots are yielded oldest first", func(t *testing.T) {
		org1History, err := c.GetProductHistory(ctx, org1Caller(), id)
		require.NoError(t, err)
		require.Equal(t, "Cranfield", org1History[0].Location)
		require.Equal(t, "London", org1History[1].Location)
		require.Equal(t, "Org2", org1History[2].TransferToOrg)
	})
}

func TestGetProductHistorySkipsDeleteMarkers(t *testing.T) {
	ctx := context.Background()
	c := newContract(t)

	created, err := c.CreateAsset(ctx, org1Caller(), "Chicken", "Cranfield", 0.5, 18, "23/12/23", "s")
	require.NoError(t, err)
	id := created.AssetID

	_, err = c.DeleteAsset(ctx, org1Caller(), id)
	require.NoError(t, err)

	// The asset is gone from the live state but its pre-deletion snapshots
	// remain readable through the ledger's history retention.
	history, err := c.GetProductHistory(ctx, org1Caller(), id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, id, history[0].ID)

	_, err = c.ReadAsset(ctx, org1Caller(), id)
	require.ErrorIs(t, err, contract.ErrNotFound)
}

func TestGetProductHistoryUnknownAsset(t *testing.T) {
	c := newContract(t)

	history, err := c.GetProductHistory(context.Background(), org1Caller(), "no-such-id")
	require.NoError(t, err)
	require.Empty(t, history)
}
