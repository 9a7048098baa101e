package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/borrowbot/internal/logging"
	"github.com/ppiankov/borrowbot/internal/model"
)

const version = "0.1.0"

var (
	cfgFile string
	verbose bool

	// appConfig is loaded once per invocation in PersistentPreRunE
	appConfig *model.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "borrowbot",
	Short: "BorrowBot - answers mentions with where to read a book",
	Long: `BorrowBot watches mentions on a social account, finds the books they refer
to (ISBN-10, ISBN-13 or a marketplace / cataloging link) and replies with
whether Open Library can lend, show or preview a copy.

Mentions are claimed on a durable cursor before any work happens, so a
mention is answered at most once.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if err := logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
			return err
		}
		appConfig = cfg
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("borrowbot v%s\n", version)
	},
}

// configKeys are bound to BORROWBOT_* environment variables so viper can
// unmarshal them without a config file present.
var configKeys = []string{
	"http.timeout", "http.user_agent", "http.max_body_bytes",
	"http.http_proxy", "http.https_proxy", "http.no_proxy", "http.respect_robots",
	"catalog.openlibrary_url", "catalog.archive_url", "catalog.search_rows",
	"cache.enabled", "cache.dir", "cache.memory_ttl", "cache.disk_ttl",
	"rate_limiting.requests_per_second", "rate_limiting.burst_size",
	"bot.cursor_file", "bot.poll_interval", "bot.mention_limit",
	"bot.concurrency", "bot.dry_run", "bot.help_url",
	"twitter.api_url",
	"log.level", "log.format",
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.borrowbot/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.borrowbot")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match BORROWBOT_*
	viper.SetEnvPrefix("BORROWBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range configKeys {
		_ = viper.BindEnv(key)
	}
	_ = viper.BindEnv("twitter.bearer_token", "BORROWBOT_TWITTER_BEARER_TOKEN", "TWITTER_BEARER_TOKEN")

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers viper's sources over the built-in defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
