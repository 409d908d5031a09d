package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/specterhq/specter-scan/internal/config"
	"github.com/specterhq/specter-scan/internal/host"
	"github.com/specterhq/specter-scan/internal/scanner"
	"github.com/specterhq/specter-scan/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Watch manifests and serve diagnostics for editor integration",
	Long: `watch runs the pipeline continuously: manifest edits are debounced
into rescans, and the bound results are served over a local HTTP surface
(diagnostics, hovers, status) that an editor plugin consumes. Without a
configured API key the watcher stays idle and logs what it is missing.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("listen", "127.0.0.1:7430", "Host surface listen address")
	watchCmd.Flags().Int("debounce-ms", 1000, "Debounce delay for rescans after an edit")
	watchCmd.Flags().Bool("auto-scan", true, "Rescan automatically on manifest changes")

	for flag, key := range map[string]string{
		"listen":      "listen",
		"debounce-ms": "debounce_ms",
		"auto-scan":   "auto_scan",
	} {
		_ = viper.BindPFlag(key, watchCmd.Flags().Lookup(flag))
	}

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	logger := newLogger()
	if cfg.APIKey == "" {
		logger.Warn("no API key configured; scans will stay idle until SPECTER_API_KEY is set")
	}

	store := host.NewStore()
	session := watch.NewSession(cfg, scanner.New(cfg, logger), store, logger, paths)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: host.NewServer(store, session.ScanAll),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("host surface listening", "addr", cfg.ListenAddr)
		serverErr <- server.ListenAndServe()
	}()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- session.Watch(ctx)
	}()

	var runErr error
	select {
	case err := <-serverErr:
		runErr = err
	case err := <-watchErr:
		if !errors.Is(err, context.Canceled) {
			runErr = err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	return runErr
}
