package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/intercede-dev/intercede/internal/infrastructure/config"
)

var (
	cfgFile  string
	verbose  bool
	settings = config.Default()
)

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "intercede",
	Short: "Interception kernel tooling",
	Long: `Intercede mediates access to objects through per-operation handler
chains: capabilities for auditing, access control, invariants,
transactions and replay observe or veto each operation before it
reaches the target. This CLI works with the artifacts those
capabilities produce: audit logs and policy documents.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.intercede/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// initConfig loads configuration from the config file and environment.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("failed to find home directory", "error", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home + "/.intercede")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "file", viper.ConfigFileUsed())
	}

	loadSettings()
}

// loadSettings parses the config file into the typed settings the
// commands consume. A broken file falls back to the defaults rather
// than aborting the command.
func loadSettings() {
	path := cfgFile
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			slog.Warn("failed to resolve config path", "error", err)
			return
		}
		path = defaultPath
	}

	loaded, err := config.Load(path)
	if err != nil {
		slog.Warn("failed to load config, using defaults", "file", path, "error", err)
		return
	}
	settings = loaded
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Using TextHandler for CLI friendliness
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
