package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wastewatch/internal/ingest"
	"github.com/blackwell-systems/wastewatch/internal/watcher"
)

var (
	watchDetections  string
	watchInterval    time.Duration
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchDaemonLog   string
	watchStop        bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Ingest detections from a detector log as it grows",
		Long: `Tail a JSON-lines detections log and record the waste it reports.

Each line is one detection from the upstream food detector. Lines are
consumed once: the read position is kept next to the log in <log>.offset,
so restarting the watcher does not double-count. Non-waste detections and
those below WASTEWATCH_CONFIDENCE_THRESHOLD are skipped.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as a background process
  • Stop: Stop a running daemon

The log is re-read on every file change and at least every --interval.`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  wastewatch watch --detections ./detections.jsonl

  # Run as background daemon
  wastewatch watch --daemon

  # Stop running daemon
  wastewatch watch --stop`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().StringVar(&watchDetections, "detections", "", "detections log path (default: <config-dir>/detections.jsonl)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", watcher.DefaultInterval, "polling interval")
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: <config-dir>/watch.pid)")
	watchCmd.Flags().StringVar(&watchDaemonLog, "daemon-log", "", "daemon output file (default: <config-dir>/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")

	watchCmd.Flags().MarkHidden("daemon-child") //nolint:errcheck

	RootCmd.AddCommand(watchCmd)
}

// watchPaths fills in the defaults for the watch file flags.
func watchPaths() (detections, pidFile, daemonLog string, err error) {
	dir, err := getConfigDir()
	if err != nil {
		return "", "", "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", "", fmt.Errorf("failed to create config directory: %w", err)
	}

	detections, pidFile, daemonLog = watchDetections, watchPIDFile, watchDaemonLog
	if detections == "" {
		detections = filepath.Join(dir, "detections.jsonl")
	}
	if pidFile == "" {
		pidFile = filepath.Join(dir, "watch.pid")
	}
	if daemonLog == "" {
		daemonLog = filepath.Join(dir, "watch.log")
	}
	return detections, pidFile, daemonLog, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	detections, pidFile, daemonLog, err := watchPaths()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if watchStop {
		running, err := watcher.IsDaemonRunning(pidFile)
		if err != nil {
			return fmt.Errorf("failed to check daemon status: %w", err)
		}
		if !running {
			fmt.Fprintln(out, "Daemon is not running")
			return nil
		}
		if err := watcher.StopDaemon(pidFile); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}
		fmt.Fprintln(out, "✓ Daemon stopped")
		return nil
	}

	if watchDaemon {
		pid, err := watcher.StartDaemon(pidFile, daemonLog, daemonArgs(os.Args[1:]))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Daemon started (PID %d)\n", pid)
		fmt.Fprintf(out, "  Detections: %s\n", detections)
		fmt.Fprintf(out, "  PID file:   %s\n", pidFile)
		fmt.Fprintf(out, "  Log file:   %s\n", daemonLog)
		fmt.Fprintln(out, "\nTo stop: wastewatch watch --stop")
		return nil
	}

	e, err := openEnv(envOptions{service: true})
	if err != nil {
		return err
	}
	defer e.Close()

	w, err := newWatcher(e, detections)
	if err != nil {
		return err
	}

	if watchDaemonChild {
		return watcher.RunDaemon(w, pidFile)
	}

	fmt.Fprintf(out, "Watching %s (press Ctrl+C to stop)...\n", detections)
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Fprintln(out, "\nShutting down...")
	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	fmt.Fprintf(out, "✓ Watcher stopped (%d records stored)\n", e.store.Len())
	return nil
}

// newWatcher builds a watcher that saves the store after every pass that
// accepted detections.
func newWatcher(e *env, detections string) (*watcher.Watcher, error) {
	proc := watcher.NewProcessor(detections, e.ingester, watcher.WithProcessorLogger(e.log))
	return watcher.New(proc,
		watcher.WithInterval(watchInterval),
		watcher.WithLogger(e.log),
		watcher.WithOnProcessed(func(res ingest.Result) {
			if err := e.save(); err != nil {
				e.log.Errorw("save after ingest failed", "error", err)
				return
			}
			e.log.Infow("detections ingested", "accepted", res.Accepted, "records", e.store.Len())
		}),
	)
}

// daemonArgs strips the daemon flag so the child runs in the foreground.
func daemonArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--daemon" || a == "--daemon=true" {
			continue
		}
		out = append(out, a)
	}
	return out
}
