package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ynab-sync/ynab-sync/internal/buildinfo"
	"github.com/ynab-sync/ynab-sync/internal/config"
	"github.com/ynab-sync/ynab-sync/internal/logging"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	settings config.Settings
	log      *zap.Logger
	store    *config.FileStore
}

// configDir is the directory holding config.yaml and the sync history.
func (a *app) configDir() string {
	return filepath.Dir(a.settings.ConfigPath)
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string
	var envFile string
	var verbose bool
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "ynab-sync",
		Short:   "Sync bank transactions from GoCardless into YNAB",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(configPath, envFile, verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.ynab_sync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file with YNAB_SYNC_* settings")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newConfigureCommand(a),
		newInstitutionsCommand(a),
		newConnectCommand(a),
		newMapAccountsCommand(a),
		newAccountsCommand(a),
		newSyncCommand(a),
		newWatchCommand(a),
		newHistoryCommand(a),
	)

	return rootCmd
}

func (a *app) setup(configPath, envFile string, verbose bool) error {
	settings, err := config.LoadSettings(envFile)
	if err != nil {
		return err
	}
	if configPath != "" {
		settings.ConfigPath = configPath
	}
	if verbose {
		settings.LogLevel = "debug"
	}

	log, err := logging.New(settings.LogLevel)
	if err != nil {
		return err
	}

	a.settings = settings
	a.log = log
	a.store = settings.Store()
	return nil
}

// report prints configuration problems as a normal message and hands any
// other error back to cobra.
func report(cmd *cobra.Command, err error) error {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		fmt.Fprintln(cmd.OutOrStdout(), cfgErr.Msg)
		return nil
	}
	return err
}
