// reconciles the product catalog of a Shopify store with a spreadsheet or mysql table
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"shopify-catalog-sync/internal/adapters/sheet"
	"shopify-catalog-sync/internal/adapters/shopify"
	"shopify-catalog-sync/internal/adapters/sqlsource"
	"shopify-catalog-sync/internal/app/usecases"
	"shopify-catalog-sync/internal/config"
	"shopify-catalog-sync/internal/infra/clock"
	infrahttp "shopify-catalog-sync/internal/infra/http"
	"shopify-catalog-sync/internal/infra/mysql"
	"shopify-catalog-sync/internal/logging"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	envFile string
	source  string
	kind    string
	sheet   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "sync-catalog",
		Short:         "Create or update Shopify products from catalog rows",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.Flags().StringVar(&opts.source, "source", "", "path of the xlsx workbook (overrides SOURCE_PATH)")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "row source kind, xlsx or mysql (overrides SOURCE_KIND)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "worksheet name (overrides SOURCE_SHEET)")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	if err := loadEnvFile(opts.envFile); err != nil {
		return err
	}

	cfg, err := config.LoadForCatalogSync()
	if err != nil {
		return err
	}
	applyFlags(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	zapLogger, err := logging.NewZap(cfg.LogFormat, logging.NewRunID())
	if err != nil {
		return err
	}
	httpClient := infrahttp.NewClient(cfg.Shopify.Timeout)

	var notifier logging.Notifier
	if tg := logging.NewTelegram(cfg.TelegramBot, httpClient); tg != nil {
		notifier = tg
	}
	logger := logging.NewLogger(zapLogger, notifier)
	defer logger.Sync()

	logger.Log("catalog sync initialized start work..")

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		logger.LogError("open row source error", err)
		return err
	}
	defer closeSource()

	shopifyClient := shopify.NewClient(cfg.Shopify, cfg.Sync, httpClient, logger, clock.Real())
	reconciler := usecases.NewProductReconciler(source, shopifyClient, logger, clock.Real(), usecases.PacingFromConfig(cfg.Sync))

	summary, err := reconciler.Run(ctx)
	if err != nil {
		logger.LogError("catalog sync error", err)
		return err
	}
	if summary.Failed > 0 {
		logger.LogWarning(fmt.Sprintf("catalog sync finished with failures %s", summary))
		return nil
	}
	logger.LogSuccess("catalog sync completed")
	return nil
}

// applyFlags lets command-line flags override the environment.
func applyFlags(cfg *config.Config, opts *options) {
	if opts.source != "" {
		cfg.Source.Path = opts.source
	}
	if kind := config.NormalizeSourceKind(opts.kind); kind != "" {
		cfg.Source.Kind = kind
	}
	if opts.sheet != "" {
		cfg.Source.Sheet = opts.sheet
	}
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func openSource(ctx context.Context, cfg config.Config) (usecases.RowSource, func(), error) {
	switch cfg.Source.Kind {
	case config.SourceKindMysql:
		db, err := mysql.New(ctx, cfg.Mysql)
		if err != nil {
			return nil, nil, err
		}
		source, err := sqlsource.NewTableSource(db, cfg.Mysql.Table, cfg.Mysql.OrderBy)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return source, closeDB(db), nil
	default:
		return sheet.NewXLSXSource(cfg.Source.Path, cfg.Source.Sheet), func() {}, nil
	}
}

func closeDB(db *sql.DB) func() {
	return func() { _ = db.Close() }
}
