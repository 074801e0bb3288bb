package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/foodtrace/audit"
	"github.com/c360studio/foodtrace/config"
	"github.com/c360studio/foodtrace/contract"
	"github.com/c360studio/foodtrace/identity"
	"github.com/c360studio/foodtrace/ledger/natskv"
)

// App wires the contract to a NATS-backed ledger for local invocations.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// NATS
	embeddedServer *server.Server
	natsConn       *nats.Conn
	js             jetstream.JetStream

	// Contract
	core    *contract.Contract
	publish *audit.Publisher
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{cfg: cfg, logger: logger}
}

// Start connects to NATS (embedded or external) and builds the ledger-backed
// contract.
func (a *App) Start(ctx context.Context) error {
	if err := a.startNATS(ctx); err != nil {
		return fmt.Errorf("start NATS: %w", err)
	}

	a.core = contract.New(natskv.New(a.js, a.cfg.Ledger.Bucket), a.logger)

	auditConn := a.natsConn
	if !a.cfg.Audit.Enabled {
		auditConn = nil
	}
	a.publish = audit.NewPublisher(auditConn, a.cfg.Audit.Subject, a.logger)

	return nil
}

func (a *App) startNATS(ctx context.Context) error {
	if a.cfg.NATS.URL != "" && !a.cfg.NATS.Embedded {
		// Connect to external NATS
		conn, err := nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		a.natsConn = conn
	} else {
		// Start embedded NATS server
		opts := &server.Options{
			Port:      -1, // Random available port
			JetStream: true,
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}

		go ns.Start()

		// Wait for server to be ready
		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return fmt.Errorf("embedded NATS server failed to start")
		}

		a.embeddedServer = ns

		// Connect to embedded server
		conn, err := nats.Connect(ns.ClientURL())
		if err != nil {
			ns.Shutdown()
			return fmt.Errorf("connect to embedded NATS: %w", err)
		}
		a.natsConn = conn
	}

	// Get JetStream context
	js, err := jetstream.New(a.natsConn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js

	return nil
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	if a.natsConn != nil {
		a.natsConn.Drain()
		a.natsConn.Close()
	}

	if a.embeddedServer != nil {
		a.embeddedServer.Shutdown()
		a.embeddedServer.WaitForShutdown()
	}
}

// Caller builds a fresh caller identity from configuration. Each invocation
// gets its own transaction id.
func (a *App) Caller() (identity.Caller, error) {
	if a.cfg.Identity.Organisation == "" {
		return nil, fmt.Errorf("identity.organisation must be set (config file or --org flag)")
	}
	return identity.NewStatic(a.cfg.Identity.Organisation, a.cfg.Identity.User), nil
}

// Publish sends a receipt to the audit subject, logging failures instead of
// failing the completed operation.
func (a *App) Publish(r *contract.Receipt) {
	if err := a.publish.Publish(r); err != nil {
		a.logger.Warn("receipt not published", slog.String("error", err.Error()))
	}
}
