package commands

import (
	"context"
	"database/sql"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/adb"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/config"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/database/repository"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/logging"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/metrics"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/service"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/tui"
)

// env is everything a command needs, built once per invocation.
type env struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	db      *sql.DB

	catalog *catalog.Loader
	adb     *adb.Client
	loader  *service.Loader
	runner  *service.Dispatcher
	backups *service.BackupService
	journal *repository.ActionLogRepo
	cache   *repository.CatalogCacheRepo
	maint   *service.MaintenanceService
}

var (
	app        *env
	configPath string
	serial     string
	verbose    bool
)

func Execute() error {
	root := &cobra.Command{
		Use:           "uad-ng",
		Short:         "Debloat Android devices over adb",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			app = e
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/uad-ng/config.toml, or $UAD_CONFIG)")
	root.PersistentFlags().StringVarP(&serial, "serial", "s", "", "device serial to use when several are attached")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(devicesCmd(), packagesCmd(), catalogCmd(), backupCmd(), journalCmd(), resetCmd())
	return root.ExecuteContext(context.Background())
}

func setup(ctx context.Context) (*env, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if serial != "" {
		cfg.ADB.Serial = serial
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	// stdout belongs to the terminal UI; logs only go to the file.
	logger := logging.NewOrNop(logging.FileConfig(cfg.Log.Level, cfg.Log.Path, cfg.Log.Development))
	m := metrics.New()

	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	e := &env{cfg: cfg, logger: logger, metrics: m, db: db}
	e.cache = repository.NewCatalogCacheRepo(db)
	e.journal = repository.NewActionLogRepo(db)
	e.maint = &service.MaintenanceService{DB: db}

	url := cfg.Catalog.URL
	if url == "" {
		url = catalog.DefaultURL
	}
	e.catalog = &catalog.Loader{
		URL:         url,
		OverlayPath: cfg.Catalog.OverlayPath,
		HTTP:        catalog.NewHTTPClient(cfg.Catalog.Timeout, cfg.Catalog.Retries, logger),
		Cache:       e.cache,
		Logger:      logger,
		Metrics:     m,
	}
	e.adb = adb.NewClient(adb.ExecRunner{Path: cfg.ADB.Path}, logger)
	e.loader = &service.Loader{Lister: e.adb, Logger: logger, Metrics: m}
	e.runner = &service.Dispatcher{Exec: e.adb, Journal: e.journal, Logger: logger, Metrics: m}
	e.backups = &service.BackupService{Repo: repository.NewBackupRepo(db), Logger: logger}

	if n, err := e.maint.PruneJournal(ctx, cfg.Journal.RetentionDays); err != nil {
		logger.Warn("journal prune failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("journal pruned", zap.Int64("rows", n))
	}
	return e, nil
}

func (e *env) close() error {
	if e == nil {
		return nil
	}
	if err := e.metrics.WriteTextfile(e.cfg.Metrics.Textfile); err != nil {
		e.logger.Warn("metrics export failed", zap.Error(err))
	}
	_ = e.logger.Sync()
	return e.db.Close()
}

func runTUI(ctx context.Context) error {
	keys := tui.NewKeyRegistry()
	if err := keys.LoadKeybindings(app.cfg.UI.KeybindingsPath); err != nil {
		app.logger.Warn("keybindings ignored", zap.Error(err))
		keys = tui.NewKeyRegistry()
	}

	save := config.Save
	if configPath != "" {
		save = func(c config.Config) error { return config.SaveTo(configPath, c) }
	}

	model := tui.New(ctx, app.cfg, tui.Deps{
		Catalog:    app.catalog,
		Transport:  app.adb,
		Enumerator: app.loader,
		Runner:     app.runner,
		Backups:    app.backups,
		SaveConfig: save,
		Keys:       keys,
		Logger:     app.logger,
		Metrics:    app.metrics,
	})
	app.logger.Info("session started")
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
