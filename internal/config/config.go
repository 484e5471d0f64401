package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Store       StoreConfig
	Hardware    HardwareConfig
	Circulation CirculationConfig
}

type StoreConfig struct {
	Driver       string // "sqlite" (default) or "postgres"
	Path         string // SQLite database file path
	URL          string // PostgreSQL connection URL when Driver is "postgres"
	MaxOpenConns int    // Maximum open connections (postgres only, default 25)
	MaxIdleConns int    // Maximum idle connections (postgres only, default 5)
}

type HardwareConfig struct {
	ReaderURL      string // base URL of the RFID bridge daemon
	CameraURL      string // base URL of the capture/biometric sidecar
	TagReadTimeout time.Duration
	CaptureTimeout time.Duration
}

// CirculationConfig carries the station's circulation policy.
type CirculationConfig struct {
	LoanPeriod     time.Duration // fixed offset added to the issue time
	MatchTolerance float64       // maximum embedding distance for a match
	OperatorDwell  time.Duration // pause before capture so the operator can align
}

// defaultsFile mirrors the embedded defaults.yaml layout.
type defaultsFile struct {
	Circulation struct {
		LoanDays             int     `yaml:"loan_days"`
		MatchTolerance       float64 `yaml:"match_tolerance"`
		OperatorDwellSeconds int     `yaml:"operator_dwell_seconds"`
	} `yaml:"circulation"`
	Hardware struct {
		TagReadTimeoutSeconds int `yaml:"tag_read_timeout_seconds"`
		CaptureTimeoutSeconds int `yaml:"capture_timeout_seconds"`
	} `yaml:"hardware"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var defaults defaultsFile
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Store: StoreConfig{
			Driver:       envString("STORE_DRIVER", "sqlite"),
			Path:         envString("STORE_PATH", "shelfgate.db"),
			URL:          os.Getenv("STORE_URL"),
			MaxOpenConns: envInt("STORE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("STORE_MAX_IDLE_CONNS", 5),
		},
		Hardware: HardwareConfig{
			ReaderURL:      envString("READER_URL", "http://localhost:9100"),
			CameraURL:      envString("CAMERA_URL", "http://localhost:9200"),
			TagReadTimeout: time.Duration(envInt("TAG_READ_TIMEOUT_SECONDS", defaults.Hardware.TagReadTimeoutSeconds)) * time.Second,
			CaptureTimeout: time.Duration(envInt("CAPTURE_TIMEOUT_SECONDS", defaults.Hardware.CaptureTimeoutSeconds)) * time.Second,
		},
		Circulation: CirculationConfig{
			LoanPeriod:     time.Duration(envInt("LOAN_DAYS", defaults.Circulation.LoanDays)) * 24 * time.Hour,
			MatchTolerance: envFloat("MATCH_TOLERANCE", defaults.Circulation.MatchTolerance),
			OperatorDwell:  time.Duration(envInt("OPERATOR_DWELL_SECONDS", defaults.Circulation.OperatorDwellSeconds)) * time.Second,
		},
	}
}
