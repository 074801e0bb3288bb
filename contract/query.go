package contract

import (
	"context"
	"fmt"

	"github.com/c360studio/foodtrace/asset"
	"github.com/c360studio/foodtrace/identity"
	"github.com/c360studio/foodtrace/ledger"
)

// GetAllAssets returns every asset custodied by the caller's organisation.
// The organisation filter is applied server-side and is not optional; assets
// held by other organisations are never yielded, whatever the ledger
// contains. Result order is the ledger's native key order.
func (c *Contract) GetAllAssets(ctx context.Context, caller identity.Caller) ([]*asset.Asset, error) {
	org, err := callerOrg(caller)
	if err != nil {
		return nil, err
	}

	cur, err := c.ledger.Range(ctx, ledger.CategoryAsset)
	if err != nil {
		return nil, fmt.Errorf("range assets: %w", err)
	}
	defer cur.Close()

	assets := []*asset.Asset{}
	for cur.Next() {
		a, err := asset.Decode(cur.Entry().Value)
		if err != nil {
			return nil, err
		}
		if a == nil || a.OwnerOrg != org {
			continue
		}
		assets = append(assets, a)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("range assets: %w", err)
	}

	return assets, nil
}

// GetProductHistory returns the historical snapshots of an asset, oldest
// first. Each snapshot is filtered independently: a snapshot is yielded only
// if the organisation that owned the asset at that point equals the caller's
// current organisation. A legitimate current owner therefore does not see
// snapshots recorded while another organisation held custody; that per-
// snapshot evaluation is deliberate and must not be widened to the asset's
// current state.
func (c *Contract) GetProductHistory(ctx context.Context, caller identity.Caller, id string) ([]*asset.Asset, error) {
	org, err := callerOrg(caller)
	if err != nil {
		return nil, err
	}

	cur, err := c.ledger.History(ctx, ledger.AssetKey(id))
	if err != nil {
		return nil, fmt.Errorf("asset history: %w", err)
	}
	defer cur.Close()

	snapshots := []*asset.Asset{}
	for cur.Next() {
		mod := cur.Modification()
		if mod.Deleted {
			continue
		}
		a, err := asset.Decode(mod.Value)
		if err != nil {
			return nil, err
		}
		if a == nil || a.OwnerOrg != org {
			continue
		}
		snapshots = append(snapshots, a)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("asset history: %w", err)
	}

	return snapshots, nil
}
