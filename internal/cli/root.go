package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"naskahlokal/config"
	"naskahlokal/config/database"
	"naskahlokal/internal/document/repository"
	"naskahlokal/internal/document/service"
	prefrepo "naskahlokal/internal/preference/repository"
	"naskahlokal/pkg/logger"
)

// RootOptions holds global flags for all commands. Flags left unset keep
// the value from the environment.
type RootOptions struct {
	DBDriver string
	DBPath   string
	DBURL    string
	LogLevel string

	Config *config.Config
}

// NewRootCommand creates the root command for the naskahlokal CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "naskahlokal",
		Short: "Local-first text editor with autosave",
		Long:  "naskahlokal keeps plain text documents in a local database and saves edits shortly after typing stops.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			flags := cmd.Flags()
			if flags.Changed("db-driver") {
				cfg.DBDriver = opts.DBDriver
			}
			if flags.Changed("db-path") {
				cfg.DBPath = opts.DBPath
			}
			if flags.Changed("db-url") {
				cfg.DBURL = opts.DBURL
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = opts.LogLevel
			}
			if cfg.DBDriver != config.DriverSQLite && cfg.DBDriver != config.DriverPostgres {
				return fmt.Errorf("invalid db driver %q: must be %q or %q", cfg.DBDriver, config.DriverSQLite, config.DriverPostgres)
			}
			if cfg.DBDriver == config.DriverPostgres && cfg.DBURL == "" {
				return fmt.Errorf("db driver %q needs DB_URL or --db-url", config.DriverPostgres)
			}
			opts.Config = cfg
			logger.InitTo(cfg.LogLevel, cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBDriver, "db-driver", config.DriverSQLite, "storage engine (sqlite|postgres)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db-path", "naskah.db", "sqlite database file")
	cmd.PersistentFlags().StringVar(&opts.DBURL, "db-url", "", "postgres connection string")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewNewCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

// stores bundles what every command needs to reach the database.
type stores struct {
	handle *database.Handle
	docs   *repository.DocumentRepository
	prefs  *prefrepo.PreferenceRepository
}

func openStores(opts *RootOptions) *stores {
	h := database.FromConfig(opts.Config)
	return &stores{
		handle: h,
		docs:   repository.NewDocumentRepository(h),
		prefs:  prefrepo.NewPreferenceRepository(h),
	}
}

func (s *stores) close() {
	if err := s.handle.Close(); err != nil {
		logger.Sugar.Warnf("Error closing database: %v", err)
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

// catalog is a document service for one-shot commands; no pages are
// connected, so there is no hub to notify.
func (s *stores) catalog() *service.DocumentService {
	return service.NewDocumentService(s.docs, nil)
}
