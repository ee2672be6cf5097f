// Package cmd implements the nmsdata command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bradhave/nmsdata/pkg/logging"
)

var (
	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"

	flagVerbose bool
	flagQuiet   bool
	flagRules   string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nmsdata",
	Short: "Game data extraction pipeline",
	Long: `nmsdata turns converter output (JSON record streams plus localization
tables) into the categorized JSON files the web application consumes.

Each run resolves display names, filters out unusable records, routes the
rest into configured buckets, collapses duplicates, and reports what
changed against the previous run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal-aware context.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", "", "rule set file (defaults to the embedded rule set)")

	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		panic(fmt.Sprintf("Failed to bind verbose flag: %v", err))
	}
	if err := viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet")); err != nil {
		panic(fmt.Sprintf("Failed to bind quiet flag: %v", err))
	}
	if err := viper.BindPFlag("rules", rootCmd.PersistentFlags().Lookup("rules")); err != nil {
		panic(fmt.Sprintf("Failed to bind rules flag: %v", err))
	}
}

// initConfig loads .env files and environment variables before any
// command runs.
func initConfig() {
	loadEnvFiles()

	viper.SetEnvPrefix("NMSDATA")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	configureLogging()
}

// configureLogging sets the log level from flags, with the environment
// as a fallback.
func configureLogging() {
	switch {
	case flagVerbose || viper.GetBool("verbose"):
		logging.SetLevel("debug")
	case flagQuiet || viper.GetBool("quiet"):
		logging.SetLevel("warn")
	case os.Getenv("LOG_LEVEL") != "":
		logging.SetLevel(os.Getenv("LOG_LEVEL"))
	}
}

// loadEnvFiles loads .env then .env.local, so local settings override
// the checked-in defaults.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		if err := godotenv.Overload(envFile); err == nil && flagVerbose {
			fmt.Fprintf(os.Stderr, "Loaded %s\n", envFile)
		}
	}
}
