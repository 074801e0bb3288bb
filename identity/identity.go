// Package identity defines the read-only caller identity consumed by every
// contract operation. Identity issuance and certificate validation happen in
// the surrounding execution environment; this package only exposes the
// attributes the contract authorizes against.
package identity

import "github.com/google/uuid"

// Attribute names carried by caller identities. These are part of the
// deployed identity schema and must not be renamed.
const (
	// AttrOrganisation holds the caller's organisation, the basis for every
	// ownership and transfer-target check.
	AttrOrganisation = "Organisation"
	// AttrUserName holds the caller's user name, recorded on receipts.
	AttrUserName = "User_name"
)

// Caller is the identity context supplied with each contract invocation.
type Caller interface {
	// Attribute returns the named attribute value and whether it is present.
	Attribute(name string) (string, bool)
	// AssertAttribute reports whether the named attribute is present and
	// equal to expected.
	AssertAttribute(name, expected string) bool
	// TransactionID returns the ledger transaction id of the current
	// invocation, used to stamp receipts.
	TransactionID() string
}

// Static is a fixed-attribute Caller for tests and for local invocations
// where identity comes from configuration rather than a certificate.
type Static struct {
	Attrs map[string]string
	TxID  string
}

// NewStatic returns a Static caller with the organisation and user attributes
// set and a random transaction id.
func NewStatic(organisation, user string) *Static {
	return &Static{
		Attrs: map[string]string{
			AttrOrganisation: organisation,
			AttrUserName:     user,
		},
		TxID: uuid.New().String(),
	}
}

// Attribute implements Caller.
func (s *Static) Attribute(name string) (string, bool) {
	v, ok := s.Attrs[name]
	return v, ok
}

// AssertAttribute implements Caller.
func (s *Static) AssertAttribute(name, expected string) bool {
	v, ok := s.Attrs[name]
	return ok && v == expected
}

// TransactionID implements Caller.
func (s *Static) TransactionID() string {
	if s.TxID == "" {
		s.TxID = uuid.New().String()
	}
	return s.TxID
}
