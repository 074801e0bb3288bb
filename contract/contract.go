// Package contract implements the custody-transfer contract: asset creation
// with content-addressed identity, the two-phase transfer state machine,
// owner-gated field mutations and organisation-scoped queries, all over an
// injected ledger.
//
// Every operation follows the same shape: resolve the asset from the ledger,
// pass it through the authorization gate, apply one state transition, persist,
// and return a receipt. Existence is always checked before authorization so
// that ErrNotFound and ErrNotAuthorized stay distinguishable.
package contract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/foodtrace/asset"
	"github.com/c360studio/foodtrace/identity"
	"github.com/c360studio/foodtrace/ledger"
)

// Contract executes custody and provenance operations against a ledger. It
// holds no state between invocations beyond the injected handles.
type Contract struct {
	ledger ledger.Ledger
	logger *slog.Logger
}

// New returns a contract bound to the given ledger.
func New(l ledger.Ledger, logger *slog.Logger) *Contract {
	if logger == nil {
		logger = slog.Default()
	}
	return &Contract{ledger: l, logger: logger}
}

// load resolves an asset from the ledger. Absent assets return (nil, nil).
func (c *Contract) load(ctx context.Context, id string) (*asset.Asset, error) {
	data, err := c.ledger.Get(ctx, ledger.AssetKey(id))
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	return asset.Decode(data)
}

// store persists an asset under its id.
func (c *Contract) store(ctx context.Context, a *asset.Asset) error {
	data, err := asset.Encode(a)
	if err != nil {
		return err
	}
	if err := c.ledger.Put(ctx, ledger.AssetKey(a.ID), data); err != nil {
		return fmt.Errorf("store asset: %w", err)
	}
	return nil
}

// requireOwner is the ownership half of the authorization gate: the caller's
// organisation attribute must equal the asset's current owner. The asset must
// already be known to exist.
func requireOwner(caller identity.Caller, a *asset.Asset) error {
	if !caller.AssertAttribute(identity.AttrOrganisation, a.OwnerOrg) {
		return ErrNotAuthorized
	}
	return nil
}

// requireTransferTarget is the completion half of the gate: the caller's
// organisation attribute must equal the pending transfer target.
func requireTransferTarget(caller identity.Caller, a *asset.Asset) error {
	if !caller.AssertAttribute(identity.AttrOrganisation, a.TransferToOrg) {
		return ErrNotAuthorized
	}
	return nil
}

// callerOrg returns the caller's organisation attribute. Identities without
// one cannot own assets, so its absence is an authorization failure.
func callerOrg(caller identity.Caller) (string, error) {
	org, ok := caller.Attribute(identity.AttrOrganisation)
	if !ok || org == "" {
		return "", ErrNotAuthorized
	}
	return org, nil
}

// InitLedger seeds the ledger with two demonstration assets owned by the
// caller's organisation. Their ids are content-derived like any other
// asset's, so re-running initialisation fails with ErrAlreadyExists instead
// of silently overwriting.
func (c *Contract) InitLedger(ctx context.Context, caller identity.Caller) error {
	seeds := []string{"init-1", "init-2"}
	for _, seed := range seeds {
		if _, err := c.CreateAsset(ctx, caller, "Chicken", "Cranfield", 0.5, 18, "23/12/23", seed); err != nil {
			return fmt.Errorf("seed asset %s: %w", seed, err)
		}
	}
	return nil
}

// CreateAsset issues a new asset owned by the caller's organisation. The id
// is derived from the creation fields plus the caller-supplied seed, so an
// identical retried call computes the same id and is rejected by the
// existence guard.
func (c *Contract) CreateAsset(ctx context.Context, caller identity.Caller, assetType, location string, weight, temperature float64, useByDate, seed string) (*Receipt, error) {
	org, err := callerOrg(caller)
	if err != nil {
		return nil, err
	}

	a := &asset.Asset{
		OwnerOrg:          org,
		Type:              assetType,
		Location:          location,
		Weight:            weight,
		Temperature:       temperature,
		UseByDate:         useByDate,
		LinkedExperiments: []string{},
	}
	a.ID = asset.DeriveID(seed, a)

	existing, err := c.load(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("asset %s: %w", a.ID, ErrAlreadyExists)
	}

	if err := c.store(ctx, a); err != nil {
		return nil, err
	}

	c.logger.Info("asset created",
		slog.String("asset_id", a.ID),
		slog.String("owner_org", org))

	r := newReceipt(caller, OpCreateAsset, a.ID)
	r.To = a.ID
	return r, nil
}

// ReadAsset returns the asset with the given id. Only the current owner
// organisation may read it.
func (c *Contract) ReadAsset(ctx context.Context, caller identity.Caller, id string) (*asset.Asset, error) {
	a, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	if err := requireOwner(caller, a); err != nil {
		return nil, err
	}
	return a, nil
}

// RequestTransfer proposes a custody transfer of an idle asset to the target
// organisation. Only the current owner may propose, and only one proposal can
// be outstanding at a time.
func (c *Contract) RequestTransfer(ctx context.Context, caller identity.Caller, targetOrg, id string) (*Receipt, error) {
	a, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	if err := requireOwner(caller, a); err != nil {
		return nil, err
	}
	if a.TransferPending() {
		return nil, fmt.Errorf("asset %s: %w", id, ErrTransferPending)
	}

	a.TransferToOrg = targetOrg
	if err := c.store(ctx, a); err != nil {
		return nil, err
	}

	c.logger.Info("transfer requested",
		slog.String("asset_id", id),
		slog.String("from_org", a.OwnerOrg),
		slog.String("to_org", targetOrg))

	r := newReceipt(caller, OpRequestTransfer, id)
	r.To = targetOrg
	return r, nil
}

// TransferComplete accepts a pending custody transfer. The authorization
// basis flips for this transition: the caller must belong to the pending
// target organisation, not to the prior owner. On success the caller's
// organisation takes custody, the pending target is cleared, and the
// location, temperature and weight recorded at handover overwrite the old
// values.
func (c *Contract) TransferComplete(ctx context.Context, caller identity.Caller, id, newOwnerUser, location string, temperature, weight float64) (*Receipt, error) {
	a, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	if !a.TransferPending() {
		return nil, fmt.Errorf("asset %s: %w", id, ErrTransferNotRequested)
	}
	if err := requireTransferTarget(caller, a); err != nil {
		return nil, err
	}

	org, err := callerOrg(caller)
	if err != nil {
		return nil, err
	}

	from := a.OwnerOrg
	a.OwnerOrg = org
	a.TransferToOrg = ""
	a.OwnerUser = newOwnerUser
	a.Location = location
	a.Temperature = temperature
	a.Weight = weight

	if err := c.store(ctx, a); err != nil {
		return nil, err
	}

	c.logger.Info("transfer completed",
		slog.String("asset_id", id),
		slog.String("from_org", from),
		slog.String("to_org", org))

	r := newReceipt(caller, OpTransferComplete, id)
	r.From = from
	r.To = org
	return r, nil
}

// mutate runs the shared existence/ownership gate, applies fn to the asset
// and persists it. fn returns the before/after values for the receipt.
func (c *Contract) mutate(ctx context.Context, caller identity.Caller, op Operation, id string, fn func(a *asset.Asset) (from, to string)) (*Receipt, error) {
	a, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	if err := requireOwner(caller, a); err != nil {
		return nil, err
	}

	from, to := fn(a)
	if err := c.store(ctx, a); err != nil {
		return nil, err
	}

	c.logger.Info("asset updated",
		slog.String("asset_id", id),
		slog.String("operation", string(op)))

	r := newReceipt(caller, op, id)
	r.From = from
	r.To = to
	return r, nil
}

// UpdateLocation overwrites the asset's location.
func (c *Contract) UpdateLocation(ctx context.Context, caller identity.Caller, id, location string) (*Receipt, error) {
	return c.mutate(ctx, caller, OpUpdateLocation, id, func(a *asset.Asset) (string, string) {
		from := a.Location
		a.Location = location
		return from, location
	})
}

// UpdateTemperature overwrites the asset's temperature.
func (c *Contract) UpdateTemperature(ctx context.Context, caller identity.Caller, id string, temperature float64) (*Receipt, error) {
	return c.mutate(ctx, caller, OpUpdateTemp, id, func(a *asset.Asset) (string, string) {
		from := a.Temperature
		a.Temperature = temperature
		return formatNumber(from), formatNumber(temperature)
	})
}

// UpdateWeight overwrites the asset's weight.
func (c *Contract) UpdateWeight(ctx context.Context, caller identity.Caller, id string, weight float64) (*Receipt, error) {
	return c.mutate(ctx, caller, OpUpdateWeight, id, func(a *asset.Asset) (string, string) {
		from := a.Weight
		a.Weight = weight
		return formatNumber(from), formatNumber(weight)
	})
}

// UpdateUseBy overwrites the asset's use-by date.
func (c *Contract) UpdateUseBy(ctx context.Context, caller identity.Caller, id, useByDate string) (*Receipt, error) {
	return c.mutate(ctx, caller, OpUpdateUseBy, id, func(a *asset.Asset) (string, string) {
		from := a.UseByDate
		a.UseByDate = useByDate
		return from, useByDate
	})
}

// LinkExperiment appends a lab experiment reference to the asset. Links are
// append-only: call order is preserved and nothing is overwritten.
func (c *Contract) LinkExperiment(ctx context.Context, caller identity.Caller, id, experimentID string) (*Receipt, error) {
	return c.mutate(ctx, caller, OpLinkExperiment, id, func(a *asset.Asset) (string, string) {
		a.LinkedExperiments = append(a.LinkedExperiments, experimentID)
		return "", experimentID
	})
}

// DeleteAsset removes the asset from the ledger. The ledger's native history
// retention is the only audit trail; no tombstone is written here.
func (c *Contract) DeleteAsset(ctx context.Context, caller identity.Caller, id string) (*Receipt, error) {
	a, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	if err := requireOwner(caller, a); err != nil {
		return nil, err
	}

	if err := c.ledger.Delete(ctx, ledger.AssetKey(id)); err != nil {
		return nil, fmt.Errorf("delete asset: %w", err)
	}

	c.logger.Info("asset deleted", slog.String("asset_id", id))

	return newReceipt(caller, OpDeleteAsset, id), nil
}
