// Command alertctl is the Scoracle alerts operator CLI. It runs the same
// pipeline as the API server directly against the database.
//
// Usage:
//
//	scoracle-alerts broadcast --title "Player Out" --status Out --level monster --user ABC123:2
//	scoracle-alerts broadcast --file alert.json
//	scoracle-alerts history --limit 20
//	scoracle-alerts alerts list ABC123
//	scoracle-alerts alerts show <alert-id>
//	scoracle-alerts alerts update <alert-id> --title "Player Questionable" --status Questionable --level medium
//	scoracle-alerts alerts delete <alert-id>
//	scoracle-alerts devices register ABC123 "ExponentPushToken[xxxx]"
//	scoracle-alerts devices list
//	scoracle-alerts receipts reconcile
//	scoracle-alerts db migrate
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-alerts/internal/alerts"
	"github.com/albapepper/scoracle-alerts/internal/app"
	"github.com/albapepper/scoracle-alerts/internal/config"
	"github.com/albapepper/scoracle-alerts/internal/db"
	"github.com/albapepper/scoracle-alerts/internal/devices"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scoracle-alerts",
		Short:        "Scoracle alerts operator CLI",
		SilenceUsage: true,
	}

	root.AddCommand(broadcastCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(alertsCmd())
	root.AddCommand(devicesCmd())
	root.AddCommand(receiptsCmd())
	root.AddCommand(dbCmd())
	return root
}

// --------------------------------------------------------------------------
// broadcast command
// --------------------------------------------------------------------------

func broadcastCmd() *cobra.Command {
	var (
		file  string
		req   alerts.Request
		users []string
	)
	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send an alert to a list of users",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				if err := readRequestFile(file, &req); err != nil {
					return err
				}
			}
			for _, u := range users {
				rcpt, err := parseRecipient(u)
				if err != nil {
					return err
				}
				req.Users = append(req.Users, rcpt)
			}

			return runWith(func(ctx context.Context, svc *app.Services) error {
				res, err := svc.Engine.Broadcast(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON request file (- for stdin); flags override its fields")
	cmd.Flags().StringVar(&req.Title, "title", "", "Alert title")
	cmd.Flags().StringVar(&req.Status, "status", "", "Status label, e.g. Out")
	cmd.Flags().StringVar(&req.StatusColor, "color", "", "Status color; defaults to the status table")
	cmd.Flags().StringVar(&req.AlertLevel, "level", "", "low, medium, high or monster")
	cmd.Flags().StringVar(&req.Details, "details", "", "Free-text details")
	cmd.Flags().StringArrayVar(&users, "user", nil, "Recipient CODE or CODE:TEAMS (repeatable)")
	return cmd
}

// readRequestFile decodes a broadcast request from path. Flags bound to the
// same struct were already parsed, so non-empty flag values are restored on
// top of the file contents.
func readRequestFile(path string, req *alerts.Request) error {
	flags := *req

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open request file: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(req); err != nil {
		return fmt.Errorf("decode request file: %w", err)
	}

	override(&req.Title, flags.Title)
	override(&req.Status, flags.Status)
	override(&req.StatusColor, flags.StatusColor)
	override(&req.AlertLevel, flags.AlertLevel)
	override(&req.Details, flags.Details)
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseRecipient parses CODE or CODE:TEAMS.
func parseRecipient(s string) (alerts.Recipient, error) {
	code, teams, found := strings.Cut(s, ":")
	rcpt := alerts.Recipient{UserID: code}
	if !found {
		return rcpt, nil
	}
	n, err := strconv.Atoi(teams)
	if err != nil || n < 0 {
		return rcpt, fmt.Errorf("invalid teams count in %q", s)
	}
	rcpt.TeamsAffected = n
	return rcpt, nil
}

// --------------------------------------------------------------------------
// history command
// --------------------------------------------------------------------------

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List notification history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, svc *app.Services) error {
				rows, err := svc.Ledger.ListHistory(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rows)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", alerts.DefaultHistoryLimit, "Max rows (capped at 500)")
	return cmd
}

// --------------------------------------------------------------------------
// alerts command
// --------------------------------------------------------------------------

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect and mutate sent alerts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list <code>",
		Short: "List recent alerts for a user code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, svc *app.Services) error {
				rows, err := svc.Ledger.ListForUser(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rows)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <alert-id>",
		Short: "Show the history row and every per-user row for an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, svc *app.Services) error {
				detail, err := svc.Ledger.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), detail)
			})
		},
	})
	cmd.AddCommand(alertsUpdateCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <alert-id>",
		Short: "Soft-delete an alert everywhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, svc *app.Services) error {
				aff, err := svc.Ledger.SoftDelete(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), aff)
			})
		},
	})
	return cmd
}

func alertsUpdateCmd() *cobra.Command {
	var f alerts.Fields
	cmd := &cobra.Command{
		Use:   "update <alert-id>",
		Short: "Rewrite an alert's title, status, color, level and details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, svc *app.Services) error {
				aff, err := svc.Ledger.Update(ctx, args[0], f)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), aff)
			})
		},
	}
	cmd.Flags().StringVar(&f.Title, "title", "", "Alert title")
	cmd.Flags().StringVar(&f.Status, "status", "", "Status label")
	cmd.Flags().StringVar(&f.StatusColor, "color", "", "Status color; defaults to the status table")
	cmd.Flags().StringVar(&f.AlertLevel, "level", "", "Alert level")
	cmd.Flags().StringVar(&f.Details, "details", "", "Free-text details")
	return cmd
}

// --------------------------------------------------------------------------
// devices command
// --------------------------------------------------------------------------

func devicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage the device directory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "register <code> <push-destination>",
		Short: "Register or replace the push destination for a code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, svc *app.Services) error {
				regID, err := svc.Registrar.Register(ctx, devices.RegisterRequest{Code: args[0], PushDestination: args[1]})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]string{"registrationId": regID})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, svc *app.Services) error {
				list, err := svc.Registrar.List(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// receipts command
// --------------------------------------------------------------------------

func receiptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "Push receipt bookkeeping",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Fetch receipts for pending tickets and resolve them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(func(ctx context.Context, svc *app.Services) error {
				sum, err := svc.Reconciler.Reconcile(ctx)
				if err != nil {
					return err
				}
				for _, e := range sum.Errors {
					logger.Warn("Reconcile error", "error", e)
				}
				logger.Info("Receipts reconciled", "summary", sum.String())
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// db command
// --------------------------------------------------------------------------

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database administration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the alert tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("Schema applied")
			return nil
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// Shared helpers
// --------------------------------------------------------------------------

// runWith loads config, connects, wires services and runs fn under a
// signal-aware context.
func runWith(fn func(ctx context.Context, svc *app.Services) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, app.Build(cfg, pool, logger))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
