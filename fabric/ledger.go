package fabric

import (
	"context"
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/c360studio/foodtrace/ledger"
)

// stubLedger adapts a chaincode stub to the ledger interface for the duration
// of one transaction. World-state keys are Fabric composite keys built from
// the category and id.
type stubLedger struct {
	stub shim.ChaincodeStubInterface
}

func newStubLedger(stub shim.ChaincodeStubInterface) *stubLedger {
	return &stubLedger{stub: stub}
}

func (l *stubLedger) compositeKey(key ledger.Key) (string, error) {
	ck, err := l.stub.CreateCompositeKey(key.Category, []string{key.ID})
	if err != nil {
		return "", fmt.Errorf("create composite key: %w", err)
	}
	return ck, nil
}

// Get implements ledger.Ledger. GetState already returns (nil, nil) for
// absent keys, matching the ledger contract.
func (l *stubLedger) Get(_ context.Context, key ledger.Key) ([]byte, error) {
	ck, err := l.compositeKey(key)
	if err != nil {
		return nil, err
	}
	return l.stub.GetState(ck)
}

// Put implements ledger.Ledger.
func (l *stubLedger) Put(_ context.Context, key ledger.Key, value []byte) error {
	ck, err := l.compositeKey(key)
	if err != nil {
		return err
	}
	return l.stub.PutState(ck, value)
}

// Delete implements ledger.Ledger.
func (l *stubLedger) Delete(_ context.Context, key ledger.Key) error {
	ck, err := l.compositeKey(key)
	if err != nil {
		return err
	}
	return l.stub.DelState(ck)
}

// Range implements ledger.Ledger via a partial-composite-key query over the
// category namespace.
func (l *stubLedger) Range(_ context.Context, category string) (ledger.Cursor, error) {
	it, err := l.stub.GetStateByPartialCompositeKey(category, []string{})
	if err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}
	return &rangeCursor{stub: l.stub, category: category, it: it}, nil
}

// History implements ledger.Ledger over the peer's per-key history index.
func (l *stubLedger) History(_ context.Context, key ledger.Key) (ledger.HistoryCursor, error) {
	ck, err := l.compositeKey(key)
	if err != nil {
		return nil, err
	}
	it, err := l.stub.GetHistoryForKey(ck)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	return &historyCursor{it: it}, nil
}

type rangeCursor struct {
	stub     shim.ChaincodeStubInterface
	category string
	it       shim.StateQueryIteratorInterface

	current ledger.Entry
	err     error
	closed  bool
}

func (c *rangeCursor) Next() bool {
	if c.closed || c.err != nil || !c.it.HasNext() {
		return false
	}

	kv, err := c.it.Next()
	if err != nil {
		c.err = fmt.Errorf("range next: %w", err)
		return false
	}

	id := kv.Key
	if _, parts, err := c.stub.SplitCompositeKey(kv.Key); err == nil && len(parts) > 0 {
		id = parts[0]
	}

	c.current = ledger.Entry{
		Key:   ledger.Key{Category: c.category, ID: id},
		Value: kv.Value,
	}
	return true
}

func (c *rangeCursor) Entry() ledger.Entry { return c.current }
func (c *rangeCursor) Err() error          { return c.err }

func (c *rangeCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.it.Close()
}

type historyCursor struct {
	it shim.HistoryQueryIteratorInterface

	current ledger.Modification
	err     error
	closed  bool
}

func (c *historyCursor) Next() bool {
	if c.closed || c.err != nil || !c.it.HasNext() {
		return false
	}

	mod, err := c.it.Next()
	if err != nil {
		c.err = fmt.Errorf("history next: %w", err)
		return false
	}

	c.current = ledger.Modification{
		Value:   mod.Value,
		TxID:    mod.TxId,
		Deleted: mod.IsDelete,
	}
	if mod.Timestamp != nil {
		c.current.Timestamp = mod.Timestamp.AsTime()
	}
	return true
}

func (c *historyCursor) Modification() ledger.Modification { return c.current }
func (c *historyCursor) Err() error                        { return c.err }

func (c *historyCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.it.Close()
}
