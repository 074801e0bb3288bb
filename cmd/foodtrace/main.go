// Package main provides the foodtrace binary entry point: a CLI for invoking
// the custody contract against a NATS-backed ledger, plus an HTTP gateway
// serve mode. Fabric deployments use the foodtrace-chaincode binary instead.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/foodtrace/config"
	"github.com/c360studio/foodtrace/gateway"
)

// Version is the build version, overridden at link time.
const Version = "0.1.0"

var flags struct {
	org     string
	user    string
	natsURL string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "foodtrace",
		Short:   "Track custody and provenance of physical goods over a shared ledger",
		Version: Version,
	}

	cmd.PersistentFlags().StringVar(&flags.org, "org", "", "caller organisation (overrides config)")
	cmd.PersistentFlags().StringVar(&flags.user, "user", "", "caller user name (overrides config)")
	cmd.PersistentFlags().StringVar(&flags.natsURL, "nats", "", "NATS server URL (overrides config, disables embedded server)")

	cmd.AddCommand(
		initCmd(),
		createCmd(),
		readCmd(),
		listCmd(),
		historyCmd(),
		requestTransferCmd(),
		transferCompleteCmd(),
		updateLocationCmd(),
		updateTemperatureCmd(),
		updateWeightCmd(),
		updateUseByCmd(),
		linkExperimentCmd(),
		deleteCmd(),
		serveCmd(),
	)

	return cmd
}

// loadConfig loads the layered configuration and applies flag overrides.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, err
	}
	if flags.org != "" {
		cfg.Identity.Organisation = flags.org
	}
	if flags.user != "" {
		cfg.Identity.User = flags.user
	}
	if flags.natsURL != "" {
		cfg.NATS.URL = flags.natsURL
		cfg.NATS.Embedded = false
	}
	return cfg, nil
}

// withApp loads config, starts the app and runs fn with a live contract.
func withApp(fn func(ctx context.Context, app *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := loadConfig(logger)
		if err != nil {
			return err
		}

		app := NewApp(cfg, logger)
		if err := app.Start(cmd.Context()); err != nil {
			return err
		}
		defer app.Shutdown()

		return fn(cmd.Context(), app)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseFloat(name, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return f, nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Seed the ledger with demonstration assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				if err := app.core.InitLedger(ctx, caller); err != nil {
					return err
				}
				fmt.Println("Ledger initialised with demonstration assets")
				return nil
			})(cmd, args)
		},
	}
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <type> <location> <weight> <temperature> <use-by-date> <seed>",
		Short: "Create an asset with a content-derived id",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, err := parseFloat("weight", args[2])
			if err != nil {
				return err
			}
			temperature, err := parseFloat("temperature", args[3])
			if err != nil {
				return err
			}

			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				receipt, err := app.core.CreateAsset(ctx, caller, args[0], args[1], weight, temperature, args[4], args[5])
				if err != nil {
					return err
				}
				app.Publish(receipt)
				return printJSON(receipt)
			})(cmd, args)
		},
	}
}

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Read an asset owned by your organisation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				a, err := app.core.ReadAsset(ctx, caller, args[0])
				if err != nil {
					return err
				}
				return printJSON(a)
			})(cmd, args)
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every asset custodied by your organisation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				assets, err := app.core.GetAllAssets(ctx, caller)
				if err != nil {
					return err
				}
				return printJSON(assets)
			})(cmd, args)
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the asset snapshots recorded under your organisation's custody",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				snapshots, err := app.core.GetProductHistory(ctx, caller, args[0])
				if err != nil {
					return err
				}
				return printJSON(snapshots)
			})(cmd, args)
		},
	}
}

func requestTransferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request-transfer <target-org> <id>",
		Short: "Propose a custody transfer to another organisation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				receipt, err := app.core.RequestTransfer(ctx, caller, args[0], args[1])
				if err != nil {
					return err
				}
				app.Publish(receipt)
				return printJSON(receipt)
			})(cmd, args)
		},
	}
}

func transferCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-complete <id> <new-owner-user> <location> <temperature> <weight>",
		Short: "Accept a pending transfer on behalf of the target organisation",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			temperature, err := parseFloat("temperature", args[3])
			if err != nil {
				return err
			}
			weight, err := parseFloat("weight", args[4])
			if err != nil {
				return err
			}

			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				receipt, err := app.core.TransferComplete(ctx, caller, args[0], args[1], args[2], temperature, weight)
				if err != nil {
					return err
				}
				app.Publish(receipt)
				return printJSON(receipt)
			})(cmd, args)
		},
	}
}

func updateLocationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-location <id> <location>",
		Short: "Overwrite an asset's location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				receipt, err := app.core.UpdateLocation(ctx, caller, args[0], args[1])
				if err != nil {
					return err
				}
				app.Publish(receipt)
				return printJSON(receipt)
			})(cmd, args)
		},
	}
}

func updateTemperatureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-temperature <id> <value>",
		Short: "Overwrite an asset's temperature",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseFloat("temperature", args[1])
			if err != nil {
				return err
			}

			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				receipt, err := app.core.UpdateTemperature(ctx, caller, args[0], value)
				if err != nil {
					return err
				}
				app.Publish(receipt)
				return printJSON(receipt)
			})(cmd, args)
		},
	}
}

func updateWeightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-weight <id> <value>",
		Short: "Overwrite an asset's weight",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseFloat("weight", args[1])
			if err != nil {
				return err
			}

			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				receipt, err := app.core.UpdateWeight(ctx, caller, args[0], value)
				if err != nil {
					return err
				}
				app.Publish(receipt)
				return printJSON(receipt)
			})(cmd, args)
		},
	}
}

func updateUseByCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-useby <id> <date>",
		Short: "Overwrite an asset's use-by date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				receipt, err := app.core.UpdateUseBy(ctx, caller, args[0], args[1])
				if err != nil {
					return err
				}
				app.Publish(receipt)
				return printJSON(receipt)
			})(cmd, args)
		},
	}
}

func linkExperimentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link-experiment <id> <experiment-id>",
		Short: "Append a lab experiment reference to an asset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				receipt, err := app.core.LinkExperiment(ctx, caller, args[0], args[1])
				if err != nil {
					return err
				}
				app.Publish(receipt)
				return printJSON(receipt)
			})(cmd, args)
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an asset from the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				caller, err := app.Caller()
				if err != nil {
					return err
				}
				receipt, err := app.core.DeleteAsset(ctx, caller, args[0])
				if err != nil {
					return err
				}
				app.Publish(receipt)
				return printJSON(receipt)
			})(cmd, args)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				srv := gateway.NewServer(app.core, app.publish, app.cfg.Identity.Organisation, app.cfg.Identity.User, app.logger)

				httpServer := &http.Server{
					Addr:              app.cfg.HTTP.Addr,
					Handler:           srv.Handler(),
					ReadHeaderTimeout: 10 * time.Second,
				}

				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				errCh := make(chan error, 1)
				go func() {
					app.logger.Info("gateway listening", slog.String("addr", app.cfg.HTTP.Addr))
					errCh <- httpServer.ListenAndServe()
				}()

				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-ctx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})(cmd, args)
		},
	}
}
