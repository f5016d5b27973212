/*
Package config loads process configuration.

PRECEDENCE (later wins):
  1. Built-in defaults (Default)
  2. YAML file, if a path is given
  3. ROSTER_* environment variables
  Validation runs last; an invalid result is an error.

EXAMPLE YAML:
  environment: production
  http:
    port: 8080
    allowed_origins: ["https://roster.example.com"]
  sheet:
    url: https://docs.google.com/spreadsheets/d/<id>/gviz/tq?tqx=out:csv
    timeout: 15s
    refresh_cron: "@every 10m"
    requests_per_minute: 6
  storage:
    driver: sqlite
    path: ./data/roster.db
  roster:
    tie_break_seed: 0
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/warp/shift-roster/schedule"
)

// StorageDriver selects the HistoryStore implementation.
type StorageDriver string

const (
	StorageMemory StorageDriver = "memory"
	StorageSQLite StorageDriver = "sqlite"
	StorageRedis  StorageDriver = "redis"
)

type Config struct {
	Environment string         `yaml:"environment"`
	HTTP        HTTPConfig     `yaml:"http"`
	Sheet       SheetConfig    `yaml:"sheet"`
	Storage     StorageConfig  `yaml:"storage"`
	Roster      RosterConfig   `yaml:"roster"`
	Employees   []EmployeeSpec `yaml:"employees"`
}

type HTTPConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type SheetConfig struct {
	URL               string `yaml:"url"`
	TimeoutRaw        string `yaml:"timeout"`
	RefreshCron       string `yaml:"refresh_cron"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`

	Timeout time.Duration `yaml:"-"`
}

type StorageConfig struct {
	Driver        StorageDriver `yaml:"driver"`
	Path          string        `yaml:"path"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisKey      string        `yaml:"redis_key"`
}

type RosterConfig struct {
	// TieBreakSeed seeds the random tie-breaker; 0 seeds from the clock.
	TieBreakSeed int64 `yaml:"tie_break_seed"`
}

type EmployeeSpec struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Environment: "development",
		HTTP: HTTPConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Sheet: SheetConfig{
			TimeoutRaw:        "15s",
			Timeout:           15 * time.Second,
			RefreshCron:       "",
			RequestsPerMinute: 6,
		},
		Storage: StorageConfig{
			Driver:    StorageSQLite,
			Path:      "./roster.db",
			RedisAddr: "localhost:6379",
		},
	}
}

// Load applies a YAML file (optional) and the environment over Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnvAny([]string{"ROSTER_ENV"}, c.Environment)
	c.HTTP.Port = getEnvIntAny([]string{"ROSTER_HTTP_PORT", "PORT"}, c.HTTP.Port)
	if v := getEnvAny([]string{"ROSTER_HTTP_ALLOWED_ORIGINS"}, ""); v != "" {
		c.HTTP.AllowedOrigins = splitList(v)
	}

	c.Sheet.URL = getEnvAny([]string{"ROSTER_SHEET_URL"}, c.Sheet.URL)
	c.Sheet.TimeoutRaw = getEnvAny([]string{"ROSTER_SHEET_TIMEOUT"}, c.Sheet.TimeoutRaw)
	c.Sheet.RefreshCron = getEnvAny([]string{"ROSTER_SHEET_REFRESH_CRON"}, c.Sheet.RefreshCron)
	c.Sheet.RequestsPerMinute = getEnvIntAny([]string{"ROSTER_SHEET_REQUESTS_PER_MINUTE"}, c.Sheet.RequestsPerMinute)

	c.Storage.Driver = StorageDriver(getEnvAny([]string{"ROSTER_STORAGE_DRIVER"}, string(c.Storage.Driver)))
	c.Storage.Path = getEnvAny([]string{"ROSTER_STORAGE_PATH"}, c.Storage.Path)
	c.Storage.RedisAddr = getEnvAny([]string{"ROSTER_REDIS_ADDR"}, c.Storage.RedisAddr)
	c.Storage.RedisPassword = getEnvAny([]string{"ROSTER_REDIS_PASSWORD"}, c.Storage.RedisPassword)
	c.Storage.RedisDB = getEnvIntAny([]string{"ROSTER_REDIS_DB"}, c.Storage.RedisDB)
	c.Storage.RedisKey = getEnvAny([]string{"ROSTER_REDIS_KEY"}, c.Storage.RedisKey)

	c.Roster.TieBreakSeed = getEnvInt64Any([]string{"ROSTER_TIE_BREAK_SEED"}, c.Roster.TieBreakSeed)
}

// Validate checks the configuration and resolves derived fields.
func (c *Config) Validate() error {
	timeout, err := parseDurationOrDefault("sheet.timeout", c.Sheet.TimeoutRaw, 15*time.Second)
	if err != nil {
		return err
	}
	c.Sheet.Timeout = timeout

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port: %d out of range", c.HTTP.Port)
	}
	if c.Sheet.RequestsPerMinute < 0 {
		return fmt.Errorf("sheet.requests_per_minute must be >= 0")
	}
	if c.Sheet.RefreshCron != "" {
		if _, err := cron.ParseStandard(c.Sheet.RefreshCron); err != nil {
			return fmt.Errorf("sheet.refresh_cron: %w", err)
		}
		if c.Sheet.URL == "" {
			return fmt.Errorf("sheet.refresh_cron requires sheet.url")
		}
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite driver")
		}
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	seen := map[string]bool{}
	for i, e := range c.Employees {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("employees[%d]: name is required", i)
		}
		key := schedule.NameKey(e.Name)
		if seen[key] {
			return fmt.Errorf("employees[%d]: duplicate name %q", i, e.Name)
		}
		seen[key] = true
	}
	return nil
}

// StaffDirectory returns the configured employee list, or the defaults when none
// is configured. Missing ids are numbered NV001, NV002, ...
func (c *Config) StaffDirectory() []schedule.Employee {
	if len(c.Employees) == 0 {
		return schedule.DefaultEmployees()
	}
	out := make([]schedule.Employee, len(c.Employees))
	for i, e := range c.Employees {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			id = fmt.Sprintf("NV%03d", i+1)
		}
		out[i] = schedule.Employee{ID: schedule.EmployeeID(id), Name: schedule.CleanName(e.Name)}
	}
	return out
}

func parseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: duration must be > 0", path)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

func getEnvInt64Any(keys []string, def int64) int64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
