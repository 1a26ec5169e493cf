package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/vedcheck/internal/logging"
	"github.com/ppiankov/vedcheck/internal/model"
	"github.com/ppiankov/vedcheck/internal/output"
)

// version is overridden at build time with -ldflags
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool
	jsonOut bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "vedcheck",
	Short: "vedcheck - immunity proof QR verifier",
	Long: `vedcheck verifies Hungarian immunity proof QR codes.

A scanned code carries a compact token. App tokens hold the proof
themselves; immunity card tokens point at the public EESZT lookup page,
which is fetched and read.

Signatures are not checked: a proof shown as VALID means the token or the
lookup page says so, nothing more.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

// ExecuteContext runs the root command; ctx reaches every subcommand
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vedcheck %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.vedcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON instead of text")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".vedcheck"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// VEDCHECK_LOOKUP_TIMEOUT overrides lookup.timeout
	viper.SetEnvPrefix("VEDCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env overrides reach Unmarshal
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("session.debounce", cfg.Session.Debounce)
	v.SetDefault("session.dwell", cfg.Session.Dwell)

	v.SetDefault("lookup.timeout", cfg.Lookup.Timeout)
	v.SetDefault("lookup.max_body_bytes", cfg.Lookup.MaxBodyBytes)
	v.SetDefault("lookup.parser", cfg.Lookup.Parser)
	v.SetDefault("lookup.issuer", cfg.Lookup.Issuer)
	v.SetDefault("lookup.requests_per_second", cfg.Lookup.RequestsPerSecond)
	v.SetDefault("lookup.burst", cfg.Lookup.Burst)
	v.SetDefault("lookup.http_proxy", cfg.Lookup.HTTPProxy)
	v.SetDefault("lookup.https_proxy", cfg.Lookup.HTTPSProxy)
	v.SetDefault("lookup.no_proxy", cfg.Lookup.NoProxy)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("concurrency.workers", cfg.Concurrency.Workers)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// loadConfig merges defaults, config file, env and flags
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose || v.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newPrinter(w io.Writer) *output.Printer {
	return output.New(w, output.Options{JSON: jsonOut, Verbose: verbose})
}

func newLogger(cfg *model.Config) *slog.Logger {
	return logging.New(cfg.Log, os.Stderr)
}
