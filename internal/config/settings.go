package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// SettingsFile is the name of the dotenv-style settings file in Dir().
const SettingsFile = "wastewatch.env"

// Setting keys. Each may also be set in the process environment, which
// takes precedence over the settings file.
const (
	KeyDataPath            = "WASTEWATCH_DATA_PATH"
	KeyBackend             = "WASTEWATCH_BACKEND"
	KeyPricePerKg          = "WASTEWATCH_PRICE_PER_KG"
	KeyCO2PerKg            = "WASTEWATCH_CO2_PER_KG"
	KeyWaterPerKg          = "WASTEWATCH_WATER_PER_KG"
	KeyListen              = "WASTEWATCH_LISTEN"
	KeyConfidenceThreshold = "WASTEWATCH_CONFIDENCE_THRESHOLD"
)

// Storage backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Settings are the tunables read from the settings file and environment.
type Settings struct {
	DataPath            string
	Backend             string
	PricePerKg          float64
	CO2PerKg            float64
	WaterPerKg          float64
	Listen              string
	ConfidenceThreshold float64
}

// DefaultSettings returns the built-in defaults. DataPath is left empty so
// the caller can derive it from the backend.
func DefaultSettings() Settings {
	return Settings{
		Backend:             BackendCSV,
		PricePerKg:          5.0,
		CO2PerKg:            2.5,
		WaterPerKg:          1000,
		Listen:              ":8080",
		ConfidenceThreshold: 0.5,
	}
}

// LoadSettings reads {dir}/wastewatch.env, then applies non-empty
// WASTEWATCH_* environment overrides on top of the defaults. A missing file
// is not an error; a malformed number is.
func LoadSettings(dir string) (Settings, error) {
	s := DefaultSettings()

	values := map[string]string{}
	if dir != "" {
		path := filepath.Join(dir, SettingsFile)
		fileValues, err := godotenv.Read(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return s, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}
	for _, k := range []string{
		KeyDataPath, KeyBackend, KeyPricePerKg, KeyCO2PerKg,
		KeyWaterPerKg, KeyListen, KeyConfidenceThreshold,
	} {
		if v, ok := os.LookupEnv(k); ok && v != "" {
			values[k] = v
		}
	}

	if v := values[KeyDataPath]; v != "" {
		s.DataPath = v
	}
	if v := values[KeyBackend]; v != "" {
		backend, err := ParseBackend(v)
		if err != nil {
			return s, err
		}
		s.Backend = backend
	}
	if v := values[KeyListen]; v != "" {
		s.Listen = v
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{KeyPricePerKg, &s.PricePerKg},
		{KeyCO2PerKg, &s.CO2PerKg},
		{KeyWaterPerKg, &s.WaterPerKg},
		{KeyConfidenceThreshold, &s.ConfidenceThreshold},
	}
	for _, f := range floats {
		v := strings.TrimSpace(values[f.key])
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("%s: invalid number %q: %w", f.key, v, err)
		}
		*f.dst = n
	}

	return s, nil
}

// ParseBackend validates a storage backend name.
func ParseBackend(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case BackendCSV:
		return BackendCSV, nil
	case BackendSQLite, "sqlite3":
		return BackendSQLite, nil
	}
	return "", fmt.Errorf("unknown backend %q (want csv or sqlite)", v)
}

// WriteSettings writes s to {dir}/wastewatch.env, creating dir if needed.
func WriteSettings(dir string, s Settings) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	values := map[string]string{
		KeyBackend:             s.Backend,
		KeyPricePerKg:          strconv.FormatFloat(s.PricePerKg, 'f', -1, 64),
		KeyCO2PerKg:            strconv.FormatFloat(s.CO2PerKg, 'f', -1, 64),
		KeyWaterPerKg:          strconv.FormatFloat(s.WaterPerKg, 'f', -1, 64),
		KeyListen:              s.Listen,
		KeyConfidenceThreshold: strconv.FormatFloat(s.ConfidenceThreshold, 'f', -1, 64),
	}
	if s.DataPath != "" {
		values[KeyDataPath] = s.DataPath
	}
	if err := godotenv.Write(values, filepath.Join(dir, SettingsFile)); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
