package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wastewatch/internal/api"
)

var (
	serveListen string
	serveWatch  bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve records, statistics and insights over HTTP",
		Long: `Start the JSON API under /api/v1.

Routes:
  GET  /health                 GET  /stats?period=
  GET  /records?food=&start=&end=
  POST /records                POST /detections
  GET  /trends/daily?days=     GET  /trends/food/:food
  GET  /trends/meal/:meal      GET  /predict?days=
  GET  /insights               GET  /recommendations?limit=
  GET  /correlations           GET  /impact
  GET  /patterns

Every accepted record is saved immediately. With --watch the detections
log is tailed as well, as 'wastewatch watch' would.`,
		Example: `  # Listen on the configured address (WASTEWATCH_LISTEN, default :8080)
  wastewatch serve

  # Serve and ingest a detector log
  wastewatch serve --listen 127.0.0.1:9000 --watch --detections ./detections.jsonl`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from settings)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "also tail the detections log")
	serveCmd.Flags().StringVar(&watchDetections, "detections", "", "detections log path for --watch (default: <config-dir>/detections.jsonl)")

	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := openEnv(envOptions{service: true, autoSave: true})
	if err != nil {
		return err
	}
	defer e.Close()

	addr := serveListen
	if addr == "" {
		addr = e.settings.Listen
	}

	if serveWatch {
		detections, _, _, err := watchPaths()
		if err != nil {
			return err
		}
		w, err := newWatcher(e, detections)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer w.Stop() //nolint:errcheck
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.New(e.store, e.agg, e.analyzer, e.ingester,
		api.WithImpactFactors(e.impactFactors()),
		api.WithLogger(e.log),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s (press Ctrl+C to stop)...\n", addr)
	return srv.Run(ctx, addr)
}
