package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
	"github.com/SscSPs/credit_ledger/internal/middleware"
	"github.com/SscSPs/credit_ledger/internal/platform/catalog"
	"github.com/SscSPs/credit_ledger/internal/platform/config"
	"github.com/SscSPs/credit_ledger/internal/repositories/database/sqlite"
	"github.com/SscSPs/credit_ledger/internal/utils/statement"
	pkgdb "github.com/SscSPs/credit_ledger/pkg/database"
	"github.com/spf13/cobra"
)

// ─── migrate ────────────────────────────────────────────────────────────────

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

			switch cfg.StoreDriver {
			case config.StoreDriverSQLite:
				store, err := sqlite.Open(cmd.Context(), cfg.SQLitePath, cfg.LockTimeout)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "SQLite schema is current at %s\n", cfg.SQLitePath)
				return store.Close()
			default:
				applied, err := pkgdb.RunMigrations(cfg.DatabaseURL, logger)
				if err != nil {
					return err
				}
				if applied {
					fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "No new migrations to apply")
				}
				return nil
			}
		},
	}
}

// ─── refresh ────────────────────────────────────────────────────────────────

func newRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run the monthly refresh for every due account",
		Long: `Run one refresh pass. With --account only that account is considered;
it is refreshed only if its cycle has elapsed.`,
		Args: cobra.NoArgs,
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			accountID, _ := cmd.Flags().GetString("account")
			out := cmd.OutOrStdout()

			if accountID != "" {
				txn, err := rt.services.Refresh.RefreshAccount(cmd.Context(), accountID, time.Now().UTC())
				if err != nil {
					return err
				}
				if txn == nil {
					fmt.Fprintf(out, "Account %s is not due for a refresh\n", accountID)
					return nil
				}
				fmt.Fprintf(out, "Refreshed %s: %+d credits, balance %d\n", accountID, txn.Amount, txn.BalanceAfter)
				return nil
			}

			summary, err := rt.services.Refresh.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "scanned=%d refreshed=%d skipped=%d failed=%d\n",
				summary.Scanned, summary.Refreshed, summary.Skipped, summary.Failed)
			if summary.Failed > 0 {
				return fmt.Errorf("%d accounts failed to refresh", summary.Failed)
			}
			return nil
		}),
	}
	cmd.Flags().String("account", "", "Refresh only this account")
	return cmd
}

// ─── pricing ────────────────────────────────────────────────────────────────

func newPricingCmd() *cobra.Command {
	pricing := &cobra.Command{
		Use:   "pricing",
		Short: "Inspect and import action pricing",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the pricing table",
		Args:  cobra.NoArgs,
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			entries, err := rt.services.Pricing.ListPricing(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ACTION\tUNIT\tUNIT SIZE\tBASE COST\tMINIMUM")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", e.ActionType, e.Unit, e.UnitSize, e.BaseCost, e.MinimumCharge)
			}
			return w.Flush()
		}),
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import pricing rows from a catalog file",
		Long: `Import the pricing section of a catalog file. Existing action types are
left untouched unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			force, _ := cmd.Flags().GetBool("force")
			cat := rt.catalog
			if file, _ := cmd.Flags().GetString("file"); file != "" {
				var err error
				if cat, err = catalog.Load(file); err != nil {
					return fmt.Errorf("load %s: %w", file, err)
				}
			}
			entries := cat.PricingEntries()
			if len(entries) == 0 {
				return fmt.Errorf("catalog has no pricing rows")
			}

			written, err := rt.services.Pricing.SeedPricing(cmd.Context(), entries, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d pricing rows\n", written, len(entries))
			return nil
		}),
	}
	importCmd.Flags().StringP("file", "f", "", "Catalog file to import (defaults to --catalog)")
	importCmd.Flags().Bool("force", false, "Overwrite existing pricing rows")

	pricing.AddCommand(list, importCmd)
	return pricing
}

// ─── accounts ───────────────────────────────────────────────────────────────

func newOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open ACCOUNT_ID",
		Short: "Open an account and grant its signup bonus",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			tier, _ := cmd.Flags().GetString("tier")
			balance, err := rt.services.Account.OpenAccount(cmd.Context(), args[0], domain.Tier(strings.ToUpper(tier)))
			if err != nil {
				return err
			}
			return printJSON(cmd, balance)
		}),
	}
	cmd.Flags().String("tier", string(domain.TierFree), "Tier: FREE, BASIC, PRO or ENTERPRISE")
	return cmd
}

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance ACCOUNT_ID",
		Short: "Show an account's balance",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			balance, err := rt.services.Account.GetBalance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, balance)
		}),
	}
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile ACCOUNT_ID...",
		Short: "Compare stored balances with the ledger",
		Long:  `Compare each account's spendable balance with the sum of its transactions. Exits non-zero when any account drifts.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ACCOUNT\tSPENDABLE\tLEDGER SUM\tDRIFT")
			drifted := 0
			for _, accountID := range args {
				rec, err := rt.services.Account.Reconcile(cmd.Context(), accountID)
				if err != nil {
					return fmt.Errorf("reconcile %s: %w", accountID, err)
				}
				if !rec.Consistent() {
					drifted++
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", rec.AccountID, rec.Spendable, rec.LedgerSum, rec.Drift)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if drifted > 0 {
				return fmt.Errorf("%d of %d accounts drift from their ledger", drifted, len(args))
			}
			return nil
		}),
	}
}

// ─── token ──────────────────────────────────────────────────────────────────

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token ACCOUNT_ID",
		Short: "Issue a bearer token for an account",
		Long: `Sign a bearer token with JWT_SECRET and JWT_ISSUER. Useful for operators
calling admin endpoints and for local testing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			role, _ := cmd.Flags().GetString("role")
			tier, _ := cmd.Flags().GetString("tier")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}

			token, err := middleware.IssueToken(args[0], role, strings.ToUpper(tier), cfg.JWTSecret, cfg.JWTIssuer, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("role", "", "Role claim, e.g. admin")
	cmd.Flags().String("tier", string(domain.TierFree), "Tier claim used for rate limiting")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	return cmd
}

// ─── export ─────────────────────────────────────────────────────────────────

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export ACCOUNT_ID",
		Short: "Export an account statement as XLSX or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
			rawFormat, _ := cmd.Flags().GetString("format")
			format, err := statement.ParseFormat(rawFormat)
			if err != nil {
				return err
			}
			from, err := flagTime(cmd, "from")
			if err != nil {
				return err
			}
			to, err := flagTime(cmd, "to")
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = fmt.Sprintf("statement_%s_%s.%s", args[0], from.Format("20060102"), format)
			}

			stmt, err := statement.Collect(cmd.Context(), rt.services.Account, rt.services.Ledger, args[0], from, to)
			if err != nil {
				return err
			}
			body, err := statement.Render(stmt, format)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, body, 0o600); err != nil {
				return fmt.Errorf("write statement: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d transactions to %s\n", len(stmt.Transactions), out)
			return nil
		}),
	}
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	cmd.Flags().String("format", string(statement.FormatXLSX), "xlsx or pdf")
	cmd.Flags().String("from", monthStart.Format(time.RFC3339), "Period start (RFC 3339)")
	cmd.Flags().String("to", monthStart.AddDate(0, 1, 0).Format(time.RFC3339), "Period end (RFC 3339)")
	cmd.Flags().StringP("out", "o", "", "Output file")
	return cmd
}

func flagTime(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be an RFC 3339 timestamp: %w", name, err)
	}
	return t.UTC(), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
