package fabric

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// clientIdentity adapts the Fabric client identity and stub to the caller
// interface. Attribute values come from the invoking certificate; the
// transaction id comes from the stub.
type clientIdentity struct {
	ctx contractapi.TransactionContextInterface
}

func newClientIdentity(ctx contractapi.TransactionContextInterface) *clientIdentity {
	return &clientIdentity{ctx: ctx}
}

// Attribute implements identity.Caller.
func (c *clientIdentity) Attribute(name string) (string, bool) {
	value, found, err := c.ctx.GetClientIdentity().GetAttributeValue(name)
	if err != nil || !found {
		return "", false
	}
	return value, true
}

// AssertAttribute implements identity.Caller.
func (c *clientIdentity) AssertAttribute(name, expected string) bool {
	return c.ctx.GetClientIdentity().AssertAttributeValue(name, expected) == nil
}

// TransactionID implements identity.Caller.
func (c *clientIdentity) TransactionID() string {
	return c.ctx.GetStub().GetTxID()
}
