package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagConfig  string
	flagVerbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "specter-scan",
	Short: "Detect risky open-source dependencies before they are installed",
	Long: `specter-scan extracts dependency coordinates from manifest files
(package.json, requirements.txt, pyproject.toml), submits them in bounded
batches to the Specter scoring service, and turns the returned risk
verdicts into actionable feedback.

Two modes are available:

  ci     one-shot scan for CI pipelines: renders a report, upserts a
         pull-request comment, and fails the build when packages are flagged
  watch  long-running interactive mode: watches manifests, rescans on
         debounced edits, and serves position-anchored diagnostics over a
         local HTTP surface for editor integrations

Configuration comes from flags, SPECTER_* environment variables, an
optional .env file, or a .specter.yml in the working directory. An API key
(SPECTER_API_KEY) is required before any scan runs.

Examples:
  # Gate a pull request
  specter-scan ci

  # Scan specific paths, fail on review verdicts too
  specter-scan ci ./app ./services --fail-on-review

  # SARIF for code scanning upload
  specter-scan ci --format sarif --output results.sarif

  # Watch the workspace and serve diagnostics on localhost
  specter-scan watch`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: .specter.yml in the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("endpoint", "", "Specter scoring service URL")
	rootCmd.PersistentFlags().String("api-key", "", "Specter API key")
	rootCmd.PersistentFlags().Float64("threshold", 0.5, "Risk threshold (0-1); scores above it are flagged")
	rootCmd.PersistentFlags().String("ecosystems", "npm,pypi", "Comma-separated ecosystems to scan")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable the local verdict cache")

	for flag, key := range map[string]string{
		"endpoint":   "endpoint",
		"api-key":    "api_key",
		"threshold":  "threshold",
		"ecosystems": "ecosystems",
		"no-cache":   "no_cache",
	} {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}
}

// newLogger builds the process logger all components share.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
