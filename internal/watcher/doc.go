// Package watcher feeds detector output into the record store.
//
// The detector appends one JSON-encoded ingest.Detection per line to a
// detections log. The Watcher reads new lines from the last committed byte
// offset whenever fsnotify reports a write, and on a 30-second ticker as a
// fallback, then hands the batch to an ingest.Ingester.
//
// Key features:
//   - Crash-safe offset tracking (temp file + rename pattern)
//   - Partial trailing lines are left for the next pass
//   - Truncated or rotated logs restart from the beginning
//   - Daemon mode support with PID file management
//
// Example usage:
//
//	proc := watcher.NewProcessor(logPath, ingest.New(st))
//	w, err := watcher.New(proc)
//	if err != nil {
//		return err
//	}
//	if err := w.Start(); err != nil {
//		return err
//	}
//	defer w.Stop()
package watcher
