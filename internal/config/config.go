// Package config reads the client's config.toml.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/logger"
)

const (
	EnvAPIURL  = "HEMMA_API_URL"
	EnvBackend = "HEMMA_BACKEND"
)

// Duration is a time.Duration written as a string ("2s", "1m30s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	APIURL         string   `toml:"api_url"`
	Backend        string   `toml:"backend"`
	UploadDebounce Duration `toml:"upload_debounce"`
	// StartDate is the first day of the tracked period, YYYY-MM-DD.
	StartDate string `toml:"start_date"`
	Debug     bool   `toml:"debug"`
}

func Default() Config {
	return Config{
		APIURL:         constants.DefaultAPIURL,
		Backend:        constants.BackendSQLite,
		UploadDebounce: Duration{constants.UploadDebounce},
		StartDate:      constants.DefaultStartDate,
	}
}

// Path returns the config file inside dir.
func Path(dir string) string {
	return filepath.Join(dir, constants.ConfigFileName)
}

// Load reads dir/config.toml over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(dir string) (Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(Path(dir), &cfg)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("failed to parse %s: %w", Path(dir), err)
	default:
		for _, key := range meta.Undecoded() {
			logger.Warn("Ignoring unknown config key", "key", key.String())
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackend)); v != "" {
		c.Backend = strings.ToLower(v)
	}
}

func (c Config) Validate() error {
	switch c.Backend {
	case constants.BackendSQLite, constants.BackendJSON:
	default:
		return fmt.Errorf("invalid backend %q: must be %s or %s", c.Backend, constants.BackendSQLite, constants.BackendJSON)
	}
	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_url %q", c.APIURL)
	}
	if c.UploadDebounce.Duration < 0 {
		return fmt.Errorf("upload_debounce cannot be negative")
	}
	if _, err := time.Parse(constants.DateFormat, c.StartDate); err != nil {
		return fmt.Errorf("invalid start_date %q: use YYYY-MM-DD", c.StartDate)
	}
	return nil
}

// Save writes the config to dir/config.toml atomically.
func (c Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := Path(dir)
	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(c); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// StorePath is the local store file for the configured backend.
func (c Config) StorePath(dir string) string {
	if c.Backend == constants.BackendJSON {
		return filepath.Join(dir, constants.JSONFileName)
	}
	return filepath.Join(dir, constants.SQLiteFileName)
}

// LogDir is where the rotated client log lives.
func LogDir(dir string) string {
	return filepath.Join(dir, "logs")
}

// Start returns the first day of the tracked period in the local timezone.
func (c Config) Start() time.Time {
	t, err := time.ParseInLocation(constants.DateFormat, c.StartDate, time.Local)
	if err != nil {
		t, _ = time.ParseInLocation(constants.DateFormat, constants.DefaultStartDate, time.Local)
	}
	return t
}
