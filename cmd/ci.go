package cmd

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/specterhq/specter-scan/internal/binder"
	"github.com/specterhq/specter-scan/internal/config"
	"github.com/specterhq/specter-scan/internal/reporter"
	"github.com/specterhq/specter-scan/internal/scanner"
)

var ciCmd = &cobra.Command{
	Use:   "ci [paths...]",
	Short: "One-shot scan that gates a CI job",
	Long: `ci discovers manifest files under the given paths (default: the
working directory), scans every unique dependency coordinate, and fails
the job when any package is flagged. When running inside a pull-request
job with a GITHUB_TOKEN, it also upserts a single summary comment on the
pull request.`,
	RunE: runCI,
}

func init() {
	ciCmd.Flags().String("format", "terminal", "Output format: terminal, json, sarif, markdown")
	ciCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ciCmd.Flags().Bool("fail-on-review", false, "Also fail on 'review' verdicts")
	ciCmd.Flags().Bool("comment", true, "Upsert a summary comment on the pull request")

	for flag, key := range map[string]string{
		"format":         "format",
		"output":         "output",
		"fail-on-review": "fail_on_review",
		"comment":        "comment",
	} {
		_ = viper.BindPFlag(key, ciCmd.Flags().Lookup(flag))
	}

	rootCmd.AddCommand(ciCmd)
}

func runCI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	// Fail fast before any network call.
	if cfg.APIKey == "" {
		return fmt.Errorf("no API key configured; set SPECTER_API_KEY or --api-key")
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	logger := newLogger()
	s := scanner.New(cfg, logger)

	ctx := context.Background()
	result, err := s.ScanPaths(ctx, paths)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	cls := binder.Classify(result.Verdicts, cfg.Threshold, cfg.FailOnReview)
	rep := reporter.Build(result, cls, cfg.Threshold)

	output, err := reporter.Get(cfg.OutputFormat).Report(rep)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	reportRef := "stdout"
	if cfg.OutputFile != "" {
		if err := os.WriteFile(cfg.OutputFile, output, 0644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		reportRef = cfg.OutputFile
		fmt.Fprintf(os.Stderr, "Report written to %s\n", cfg.OutputFile)
	} else {
		fmt.Print(string(output))
	}

	if cfg.Comment {
		if err := upsertPRComment(ctx, rep); err != nil {
			// A missing comment is not worth failing an otherwise
			// clean build over.
			logger.Warn("could not upsert PR comment", "error", err)
		}
	}

	if err := reporter.WriteCIOutputs(len(result.Verdicts), len(cls.Flagged), reportRef); err != nil {
		logger.Warn("could not write CI outputs", "error", err)
	}

	if !cls.Passed {
		fmt.Fprintln(os.Stderr, reporter.FailureMessage(cls.Flagged))
		os.Exit(1)
	}

	return nil
}

// upsertPRComment posts the Markdown report on the triggering pull
// request, when the CI environment provides enough context.
func upsertPRComment(ctx context.Context, rep *reporter.Report) error {
	token := os.Getenv("GITHUB_TOKEN")
	repo := os.Getenv("GITHUB_REPOSITORY")
	pr := prNumberFromEnv()

	if token == "" || repo == "" || pr == 0 {
		return nil // not a PR job
	}

	body, err := (&reporter.MarkdownReporter{}).Report(rep)
	if err != nil {
		return err
	}

	return reporter.NewGitHubClient(token, repo).UpsertComment(ctx, pr, string(body))
}

var prRefPattern = regexp.MustCompile(`^refs/pull/(\d+)/`)

// prNumberFromEnv resolves the pull-request number from the CI
// environment: SPECTER_PR_NUMBER wins, then the GITHUB_REF of a
// pull_request-triggered job.
func prNumberFromEnv() int {
	if raw := os.Getenv("SPECTER_PR_NUMBER"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	if m := prRefPattern.FindStringSubmatch(os.Getenv("GITHUB_REF")); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}
