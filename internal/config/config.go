// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ayusman/mudra/internal/gesture"
)

// ErrInvalid is returned when a value cannot be parsed or is out of range.
var ErrInvalid = errors.New("invalid configuration")

// Setting keys that may be overridden from the settings store.
const (
	SettingHoldTime        = "min_hold_ms"
	SettingCooldown        = "cooldown_ms"
	SettingMaxSequence     = "max_sequence"
	SettingSequenceTimeout = "sequence_timeout_ms"
	SettingEnableSequence  = "enable_sequence"
	SettingHistoryLimit    = "history_limit"
)

// SettingKeys lists every key accepted by ApplySettings.
var SettingKeys = []string{
	SettingHoldTime,
	SettingCooldown,
	SettingMaxSequence,
	SettingSequenceTimeout,
	SettingEnableSequence,
	SettingHistoryLimit,
}

// Config is the process configuration.
type Config struct {
	Recognition gesture.Config

	Addr            string
	DataDir         string
	PluginDir       string
	WebDir          string
	CameraID        int // -1 disables live capture
	MotionThreshold float64
	PluginTimeout   time.Duration
	LogLevel        slog.Level
	Tray            bool
}

// Default returns the built-in defaults.
func Default() Config {
	dataDir := ".mudra"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".mudra")
	}
	return Config{
		Recognition:     gesture.DefaultConfig(),
		Addr:            ":8080",
		DataDir:         dataDir,
		PluginDir:       filepath.Join(dataDir, "plugins"),
		CameraID:        -1,
		MotionThreshold: 1.0,
		PluginTimeout:   5 * time.Second,
		LogLevel:        slog.LevelInfo,
	}
}

// DBPath returns the SQLite database location.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// Load reads an optional .env file and then the MUDRA_* environment
// variables on top of the defaults. The result is validated.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a configuration from a variable lookup function.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	r := &cfg.Recognition
	p.millis("MUDRA_MIN_HOLD_MS", &r.HoldTime)
	p.millis("MUDRA_COOLDOWN_MS", &r.Cooldown)
	p.integer("MUDRA_MAX_SEQUENCE", &r.MaxSequence)
	p.millis("MUDRA_SEQUENCE_TIMEOUT_MS", &r.SequenceTimeout)
	p.boolean("MUDRA_ENABLE_SEQUENCE", &r.EnableSequence)
	p.integer("MUDRA_HISTORY_LIMIT", &r.HistoryLimit)

	dataDirSet := p.str("MUDRA_DATA_DIR", &cfg.DataDir)
	if dataDirSet {
		cfg.PluginDir = filepath.Join(cfg.DataDir, "plugins")
	}
	p.str("MUDRA_ADDR", &cfg.Addr)
	p.str("MUDRA_PLUGIN_DIR", &cfg.PluginDir)
	p.str("MUDRA_WEB_DIR", &cfg.WebDir)
	p.integer("MUDRA_CAMERA_ID", &cfg.CameraID)
	p.float("MUDRA_MOTION_THRESHOLD", &cfg.MotionThreshold)
	p.millis("MUDRA_PLUGIN_TIMEOUT_MS", &cfg.PluginTimeout)
	p.level("MUDRA_LOG_LEVEL", &cfg.LogLevel)
	p.boolean("MUDRA_TRAY", &cfg.Tray)

	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplySettings overrides recognition tunables with values from the
// settings store. Unknown keys are ignored so older databases keep working.
func (c *Config) ApplySettings(settings map[string]string) error {
	p := parser{lookup: func(key string) (string, bool) {
		v, ok := settings[key]
		return v, ok
	}}

	r := &c.Recognition
	p.millis(SettingHoldTime, &r.HoldTime)
	p.millis(SettingCooldown, &r.Cooldown)
	p.integer(SettingMaxSequence, &r.MaxSequence)
	p.millis(SettingSequenceTimeout, &r.SequenceTimeout)
	p.boolean(SettingEnableSequence, &r.EnableSequence)
	p.integer(SettingHistoryLimit, &r.HistoryLimit)

	if p.err != nil {
		return p.err
	}
	return c.Validate()
}

// ValidateSetting checks a single settings value without applying it.
func ValidateSetting(key, value string) error {
	known := false
	for _, k := range SettingKeys {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: unknown setting %q", ErrInvalid, key)
	}
	cfg := Default()
	return cfg.ApplySettings(map[string]string{key: value})
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	if err := c.Recognition.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: empty listen address", ErrInvalid)
	case c.DataDir == "":
		return fmt.Errorf("%w: empty data directory", ErrInvalid)
	case c.CameraID < -1:
		return fmt.Errorf("%w: camera id %d", ErrInvalid, c.CameraID)
	case c.MotionThreshold < 0:
		return fmt.Errorf("%w: negative motion threshold %v", ErrInvalid, c.MotionThreshold)
	case c.PluginTimeout <= 0:
		return fmt.Errorf("%w: plugin timeout must be positive", ErrInvalid)
	}
	return nil
}

// parser records the first parse error and leaves targets untouched for
// missing keys.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) get(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *parser) fail(key, value string, err error) {
	p.err = fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, value, err)
}

func (p *parser) str(key string, dst *string) bool {
	v, ok := p.get(key)
	if ok {
		*dst = v
	}
	return ok
}

func (p *parser) integer(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = n
}

func (p *parser) float(key string, dst *float64) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = f
}

func (p *parser) millis(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = time.Duration(n) * time.Millisecond
}

func (p *parser) boolean(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = b
}

func (p *parser) level(key string, dst *slog.Level) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	if err := dst.UnmarshalText([]byte(v)); err != nil {
		p.fail(key, v, err)
	}
}
