package asset

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// idPayloadV1 is the canonical encoding hashed to derive an asset ID,
// version 1. Keys marshal in struct-field order, so the order below is the
// canonical key order and is frozen: any change to the fields, their order, or
// their JSON names invalidates every previously derived ID.
type idPayloadV1 struct {
	Location    string  `json:"location"`
	OwnerOrg    string  `json:"owner_Org"`
	Seed        string  `json:"seed"`
	Temperature float64 `json:"temperature"`
	Type        string  `json:"type"`
	UseByDate   string  `json:"useByDate"`
	Weight      float64 `json:"weight"`
}

// DeriveID computes the content-addressed identity of an asset from its
// creation fields plus a caller-supplied seed: the SHA-256 hex digest of the
// canonical v1 encoding. Identical argument tuples always derive the same ID,
// which lets a client retry a creation call safely; the duplicate is then
// rejected by the existence guard rather than minting a second asset.
func DeriveID(seed string, a *Asset) string {
	payload := idPayloadV1{
		Location:    a.Location,
		OwnerOrg:    a.OwnerOrg,
		Seed:        seed,
		Temperature: a.Temperature,
		Type:        a.Type,
		UseByDate:   a.UseByDate,
		Weight:      a.Weight,
	}

	// Marshalling a fixed struct cannot fail.
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
