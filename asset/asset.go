// Package asset defines the asset record model shared by every foodtrace
// component: the wire schema, the byte codec used for ledger values, and the
// deterministic content-addressed identity derivation.
package asset

import (
	"encoding/json"
	"fmt"
)

// Asset is a tracked physical-goods record with custody and provenance fields.
// JSON field names are the wire schema and are frozen: ledger values written by
// older deployments must keep decoding.
type Asset struct {
	// ID is content-derived at creation and never changes afterwards.
	ID string `json:"id"`
	// OwnerOrg is the organisation currently accountable for the asset.
	// Non-empty from creation onwards.
	OwnerOrg string `json:"owner_Org"`
	// TransferToOrg is empty while the asset is idle and names the pending
	// target organisation while a custody transfer is outstanding.
	TransferToOrg string `json:"transferTo_Org"`
	// OwnerUser is the user who last took custody of the asset.
	OwnerUser string `json:"owner_user,omitempty"`

	Type        string  `json:"type"`
	Location    string  `json:"location"`
	Weight      float64 `json:"weight"`
	Temperature float64 `json:"temperature"`
	UseByDate   string  `json:"useByDate"`

	// LinkedExperiments is an ordered, append-only sequence of lab experiment
	// references. Never nil after decoding.
	LinkedExperiments []string `json:"linkedExperiments"`
}

// TransferPending reports whether a custody transfer has been requested and
// not yet completed. The asset is in exactly one of the two states at any
// time; the pending state is encoded by TransferToOrg being non-empty.
func (a *Asset) TransferPending() bool {
	return a.TransferToOrg != ""
}

// Decode unmarshals a ledger value into an Asset. Empty or nil input decodes
// to (nil, nil): an absent value, never an error. Keys unknown to this schema
// version are ignored, and keys missing from the input decode to defaults
// (LinkedExperiments becomes an empty slice, never nil).
func Decode(data []byte) (*Asset, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var a Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode asset: %w", err)
	}
	if a.LinkedExperiments == nil {
		a.LinkedExperiments = []string{}
	}

	return &a, nil
}

// Encode marshals an Asset into its ledger value. Encode and Decode round-trip
// exactly for every valid asset.
func Encode(a *Asset) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode asset: %w", err)
	}
	return data, nil
}
