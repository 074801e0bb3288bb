// Package audit publishes operation receipts to NATS for off-ledger indexing.
// Receipts are ephemeral in the contract itself; deployments that want a
// queryable transaction log subscribe to the receipt subject and index the
// messages however they like.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/foodtrace/contract"
)

// DefaultSubjectPrefix is the subject prefix under which receipts publish.
// The operation kind is appended as the final token, so an indexer can
// subscribe to all receipts or to a single operation.
const DefaultSubjectPrefix = "foodtrace.receipts"

// Publisher publishes receipts to a NATS subject.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewPublisher returns a receipt publisher. A nil connection is allowed and
// turns publishing into a no-op, so callers never have to guard the call.
func NewPublisher(nc *nats.Conn, prefix string, logger *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{nc: nc, prefix: prefix, logger: logger}
}

// Publish sends a receipt to <prefix>.<operation>. Publishing is best-effort
// by design: the ledger commit already happened, so a failure here is logged
// and reported but must not make the caller treat the operation as failed.
func (p *Publisher) Publish(r *contract.Receipt) error {
	if p.nc == nil || r == nil {
		return nil // Skip publishing if no NATS client (graceful degradation)
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.prefix, r.Operation)
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("receipt publish failed",
			slog.String("subject", subject),
			slog.String("asset_id", r.AssetID),
			slog.String("error", err.Error()))
		return fmt.Errorf("publish receipt: %w", err)
	}

	return nil
}
