package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/wastewatch/internal/analyzer"
	"github.com/blackwell-systems/wastewatch/internal/config"
	"github.com/blackwell-systems/wastewatch/internal/ingest"
	"github.com/blackwell-systems/wastewatch/internal/logging"
	"github.com/blackwell-systems/wastewatch/internal/stats"
	"github.com/blackwell-systems/wastewatch/internal/store"
)

// now is the clock shared by every component the commands build.
var now = time.Now

// env is everything a command needs, opened from flags and settings.
type env struct {
	dir      string
	settings config.Settings
	log      *zap.SugaredLogger

	store    *store.Store
	agg      *stats.Aggregator
	analyzer *analyzer.Analyzer
	ingester *ingest.Ingester
}

type envOptions struct {
	// service commands log by default; one-shot commands stay quiet
	// unless --debug or --log-file is given.
	service  bool
	autoSave bool
}

// resolveSettings layers the persistent flags over the settings file.
func resolveSettings() (string, config.Settings, error) {
	dir, err := getConfigDir()
	if err != nil {
		return "", config.Settings{}, err
	}

	settings, err := config.LoadSettings(dir)
	if err != nil {
		return "", settings, err
	}
	if backend != "" {
		if settings.Backend, err = config.ParseBackend(backend); err != nil {
			return "", settings, err
		}
	}
	if dataPath != "" {
		settings.DataPath = dataPath
	}
	if settings.DataPath == "" {
		settings.DataPath = defaultDataPath(dir, settings.Backend)
	}
	return dir, settings, nil
}

func openEnv(opts envOptions) (*env, error) {
	dir, settings, err := resolveSettings()
	if err != nil {
		return nil, err
	}

	log := logging.Nop()
	if opts.service || debugLog || logFile != "" {
		log, err = logging.New(logging.Options{Debug: debugLog, File: logFile})
		if err != nil {
			return nil, err
		}
	}

	persister, err := openPersister(settings)
	if err != nil {
		return nil, err
	}

	storeOpts := []store.Option{store.WithPersister(persister), store.WithLogger(log)}
	if opts.autoSave {
		storeOpts = append(storeOpts, store.WithAutoSave())
	}
	st := store.New(storeOpts...)
	if err := st.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		st.Close()
		return nil, fmt.Errorf("failed to load records from %s: %w", settings.DataPath, err)
	}

	aliases, err := config.LoadAliases(dir)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to load aliases: %w", err)
	}

	agg := stats.New(st, stats.WithClock(now), stats.WithLogger(log))
	return &env{
		dir:      dir,
		settings: settings,
		log:      log,
		store:    st,
		agg:      agg,
		analyzer: analyzer.New(agg, analyzer.WithLogger(log)),
		ingester: ingest.New(st,
			ingest.WithAliases(aliases),
			ingest.WithMinConfidence(settings.ConfidenceThreshold),
			ingest.WithClock(now),
			ingest.WithLogger(log),
		),
	}, nil
}

func defaultDataPath(dir, backend string) string {
	if backend == config.BackendSQLite {
		return filepath.Join(dir, "waste.db")
	}
	return filepath.Join(dir, "waste.csv")
}

func openPersister(s config.Settings) (store.Persister, error) {
	if s.Backend != config.BackendSQLite {
		return &store.CSVFile{Path: s.DataPath}, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.DataPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := store.OpenSQLite(s.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.CreateSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}
	return db, nil
}

func (e *env) impactFactors() analyzer.ImpactFactors {
	f := analyzer.DefaultImpactFactors()
	f.PricePerKg = e.settings.PricePerKg
	f.CO2PerKg = e.settings.CO2PerKg
	f.WaterPerKg = e.settings.WaterPerKg
	return f
}

// save persists the store after a one-shot mutation.
func (e *env) save() error {
	if err := e.store.Save(); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	return nil
}

func (e *env) Close() error {
	e.log.Sync() //nolint:errcheck
	return e.store.Close()
}
