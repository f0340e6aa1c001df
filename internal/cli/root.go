// Package cli implements ledgerctl, the operator command line for the
// credit ledger. Every command works directly against the configured store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	portssvc "github.com/SscSPs/credit_ledger/internal/core/ports/services"
	"github.com/SscSPs/credit_ledger/internal/core/services"
	"github.com/SscSPs/credit_ledger/internal/platform/catalog"
	"github.com/SscSPs/credit_ledger/internal/platform/config"
	"github.com/SscSPs/credit_ledger/internal/repositories/database"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the ledgerctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the credit ledger",
		Long: `ledgerctl runs maintenance tasks against the credit ledger store:
schema migrations, the monthly refresh, pricing imports, balance checks,
reconciliation, statement exports and operator tokens. Connection settings come from the
same environment variables as the service.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("catalog", "", "Catalog file (defaults to CATALOG_PATH)")

	root.AddCommand(
		newMigrateCmd(),
		newRefreshCmd(),
		newPricingCmd(),
		newOpenCmd(),
		newBalanceCmd(),
		newReconcileCmd(),
		newExportCmd(),
		newTokenCmd(),
	)
	return root
}

// Execute runs ledgerctl with the process arguments.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// runtime is everything a command needs to reach the ledger.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	catalog  *catalog.Catalog
	services *portssvc.ServiceContainer
	close    func()
}

// openRuntime loads configuration and the catalog, then opens the store.
func openRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if path, _ := cmd.Flags().GetString("catalog"); path != "" {
		cfg.CatalogPath = path
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	cat, err := catalog.Load(cfg.CatalogPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Catalog file not found, using built-in tier policies", slog.String("path", cfg.CatalogPath))
		cat, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	tiers, err := cat.TierPolicies()
	if err != nil {
		return nil, err
	}

	repos, err := database.OpenRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &runtime{
		cfg:      cfg,
		logger:   logger,
		catalog:  cat,
		services: services.NewServiceContainer(cfg, repos, tiers),
		close:    repos.Close,
	}, nil
}

// withRuntime adapts a command body that needs an open runtime.
func withRuntime(fn func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer rt.close()
		return fn(cmd, args, rt)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}
