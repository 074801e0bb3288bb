// Package fabric exposes the custody contract as Hyperledger Fabric
// chaincode. Each exported method runs once per Fabric transaction: it wraps
// the stub and client identity in per-invocation adapters and delegates to
// the core contract, so all state-machine and authorization logic lives in
// one place regardless of execution environment.
package fabric

import (
	"context"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/c360studio/foodtrace/asset"
	"github.com/c360studio/foodtrace/contract"
)

// TransferContract is the chaincode surface for asset custody tracking.
type TransferContract struct {
	contractapi.Contract
}

// core builds a per-transaction contract over the stub-backed ledger. Fabric
// transactions carry no Go context; cancellation belongs to the peer's
// transaction execution environment.
func (t *TransferContract) core(ctx contractapi.TransactionContextInterface) (context.Context, *contract.Contract, *clientIdentity) {
	return context.Background(), contract.New(newStubLedger(ctx.GetStub()), nil), newClientIdentity(ctx)
}

// InitLedger seeds the world state with demonstration assets owned by the
// invoking organisation.
func (t *TransferContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	goctx, core, caller := t.core(ctx)
	return core.InitLedger(goctx, caller)
}

// CreateAsset issues a new asset with a content-derived id and returns the
// creation receipt.
func (t *TransferContract) CreateAsset(ctx contractapi.TransactionContextInterface, assetType, location string, weight, temperature float64, useByDate, seed string) (*contract.Receipt, error) {
	goctx, core, caller := t.core(ctx)
	return core.CreateAsset(goctx, caller, assetType, location, weight, temperature, useByDate, seed)
}

// ReadAsset returns the asset with the given id to its owning organisation.
func (t *TransferContract) ReadAsset(ctx contractapi.TransactionContextInterface, id string) (*asset.Asset, error) {
	goctx, core, caller := t.core(ctx)
	return core.ReadAsset(goctx, caller, id)
}

// RequestTransfer proposes a custody transfer to the named organisation.
func (t *TransferContract) RequestTransfer(ctx contractapi.TransactionContextInterface, targetOrg, id string) (*contract.Receipt, error) {
	goctx, core, caller := t.core(ctx)
	return core.RequestTransfer(goctx, caller, targetOrg, id)
}

// TransferComplete accepts a pending transfer on behalf of the target
// organisation.
func (t *TransferContract) TransferComplete(ctx contractapi.TransactionContextInterface, id, newOwnerUser, location string, temperature, weight float64) (*contract.Receipt, error) {
	goctx, core, caller := t.core(ctx)
	return core.TransferComplete(goctx, caller, id, newOwnerUser, location, temperature, weight)
}

// UpdateLocation overwrites the asset's location.
func (t *TransferContract) UpdateLocation(ctx contractapi.TransactionContextInterface, id, location string) (*contract.Receipt, error) {
	goctx, core, caller := t.core(ctx)
	return core.UpdateLocation(goctx, caller, id, location)
}

// UpdateTemperature overwrites the asset's temperature.
func (t *TransferContract) UpdateTemperature(ctx contractapi.TransactionContextInterface, id string, temperature float64) (*contract.Receipt, error) {
	goctx, core, caller := t.core(ctx)
	return core.UpdateTemperature(goctx, caller, id, temperature)
}

// UpdateWeight overwrites the asset's weight.
func (t *TransferContract) UpdateWeight(ctx contractapi.TransactionContextInterface, id string, weight float64) (*contract.Receipt, error) {
	goctx, core, caller := t.core(ctx)
	return core.UpdateWeight(goctx, caller, id, weight)
}

// UpdateUseBy overwrites the asset's use-by date.
func (t *TransferContract) UpdateUseBy(ctx contractapi.TransactionContextInterface, id, useByDate string) (*contract.Receipt, error) {
	goctx, core, caller := t.core(ctx)
	return core.UpdateUseBy(goctx, caller, id, useByDate)
}

// LinkExperiment appends a lab experiment reference to the asset.
func (t *TransferContract) LinkExperiment(ctx contractapi.TransactionContextInterface, id, experimentID string) (*contract.Receipt, error) {
	goctx, core, caller := t.core(ctx)
	return core.LinkExperiment(goctx, caller, id, experimentID)
}

// DeleteAsset removes the asset from the world state.
func (t *TransferContract) DeleteAsset(ctx contractapi.TransactionContextInterface, id string) (*contract.Receipt, error) {
	goctx, core, caller := t.core(ctx)
	return core.DeleteAsset(goctx, caller, id)
}

// GetAllAssets returns every asset custodied by the invoking organisation.
func (t *TransferContract) GetAllAssets(ctx contractapi.TransactionContextInterface) ([]*asset.Asset, error) {
	goctx, core, caller := t.core(ctx)
	return core.GetAllAssets(goctx, caller)
}

// GetProductHistory returns the asset's historical snapshots visible to the
// invoking organisation.
func (t *TransferContract) GetProductHistory(ctx contractapi.TransactionContextInterface, id string) ([]*asset.Asset, error) {
	goctx, core, caller := t.core(ctx)
	return core.GetProductHistory(goctx, caller, id)
}
