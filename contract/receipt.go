package contract

import (
	"strconv"

	"github.com/c360studio/foodtrace/identity"
)

// Operation identifies the kind of state change a receipt records.
type Operation string

// Operation kinds.
const (
	OpInitLedger       Operation = "init-ledger"
	OpCreateAsset      Operation = "create-asset"
	OpRequestTransfer  Operation = "request-transfer"
	OpTransferComplete Operation = "transfer-complete"
	OpUpdateLocation   Operation = "update-location"
	OpUpdateTemp       Operation = "update-temperature"
	OpUpdateWeight     Operation = "update-weight"
	OpUpdateUseBy      Operation = "update-useby"
	OpLinkExperiment   Operation = "link-experiment"
	OpDeleteAsset      Operation = "delete-asset"
)

// Receipt is the per-operation audit record returned to the caller. It is
// ephemeral: the contract never persists it, callers index or log it
// themselves (see the audit package).
type Receipt struct {
	TransactionID string    `json:"transaction_id"`
	AssetID       string    `json:"asset_id"`
	Operation     Operation `json:"operation"`
	// From and To carry the before/after values of a field mutation, when
	// the operation has ones to report.
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	ActorUser string `json:"actor_user"`
	ActorOrg  string `json:"actor_org"`
}

// newReceipt stamps a receipt with the caller's identity attributes and the
// current transaction id.
func newReceipt(caller identity.Caller, op Operation, assetID string) *Receipt {
	org, _ := caller.Attribute(identity.AttrOrganisation)
	user, _ := caller.Attribute(identity.AttrUserName)
	return &Receipt{
		TransactionID: caller.TransactionID(),
		AssetID:       assetID,
		Operation:     op,
		ActorUser:     user,
		ActorOrg:      org,
	}
}

// formatNumber renders a numeric field value for a receipt.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
