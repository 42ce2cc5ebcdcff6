package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName         = "jobscout"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"
	StoreDirName    = "store"
)

// Config holds every tunable of the search service and CLI.
type Config struct {
	Search  SearchConfig  `json:"search"`
	Server  ServerConfig  `json:"server"`
	Scraper ScraperConfig `json:"scraper"`
	Adzuna  AdzunaConfig  `json:"adzuna"`
	Store   StoreConfig   `json:"store"`
}

type SearchConfig struct {
	DefaultLocation  string   `json:"default_location"`
	MaxResults       int      `json:"max_results"`
	DefaultTimeoutMs int64    `json:"default_timeout_ms"`
	MaxTimeoutMs     int64    `json:"max_timeout_ms"`
	Sources          []string `json:"sources"`
}

type ServerConfig struct {
	Listen string `json:"listen"`
	Debug  bool   `json:"debug"`
}

type ScraperConfig struct {
	RetryAttempts     int     `json:"retry_attempts"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	RequestTimeoutMs  int64   `json:"request_timeout_ms"`
	ChromePath        string  `json:"chrome_path"`
}

type AdzunaConfig struct {
	AppID   string `json:"app_id"`
	AppKey  string `json:"app_key"`
	Country string `json:"country"`
}

type StoreConfig struct {
	Path     string `json:"path"`
	Disabled bool   `json:"disabled"`
}

// DefaultConfig returns the built-in settings, overridden by JOBSCOUT_*
// environment variables.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			DefaultLocation:  envString("JOBSCOUT_DEFAULT_LOCATION", ""),
			MaxResults:       envInt("JOBSCOUT_MAX_RESULTS", 25),
			DefaultTimeoutMs: int64(envInt("JOBSCOUT_DEFAULT_TIMEOUT_MS", 30000)),
			MaxTimeoutMs:     int64(envInt("JOBSCOUT_MAX_TIMEOUT_MS", 60000)),
			Sources:          splitCSV(envString("JOBSCOUT_SOURCES", "")),
		},
		Server: ServerConfig{
			Listen: envString("JOBSCOUT_LISTEN", ":8080"),
		},
		Scraper: ScraperConfig{
			RetryAttempts:     envInt("JOBSCOUT_RETRY_ATTEMPTS", 3),
			RequestsPerSecond: envFloat("JOBSCOUT_REQUESTS_PER_SECOND", 2),
			RequestTimeoutMs:  int64(envInt("JOBSCOUT_REQUEST_TIMEOUT_MS", 20000)),
			ChromePath:        envString("JOBSCOUT_CHROME_PATH", ""),
		},
		Adzuna: AdzunaConfig{
			AppID:   envString("JOBSCOUT_ADZUNA_APP_ID", ""),
			AppKey:  envString("JOBSCOUT_ADZUNA_APP_KEY", ""),
			Country: envString("JOBSCOUT_ADZUNA_COUNTRY", "us"),
		},
		Store: StoreConfig{
			Path: envString("JOBSCOUT_STORE_PATH", ""),
		},
	}
}

// EnabledSources resolves the configured source names; an empty list
// enables every source.
func (c Config) EnabledSources() ([]models.Source, error) {
	if len(c.Search.Sources) == 0 {
		return append([]models.Source(nil), models.AllSources...), nil
	}
	sources := make([]models.Source, 0, len(c.Search.Sources))
	for _, name := range c.Search.Sources {
		source, ok := models.ParseSource(name)
		if !ok {
			return nil, fmt.Errorf("config: unknown source %q", name)
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// StorePath returns the configured store directory or the default one
// inside the config directory.
func (c Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, StoreDirName), nil
}

func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func ProxiesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProxiesFileName), nil
}

// Load reads config.json on top of the defaults. A missing or blank file
// yields the defaults.
func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFile(path)
}

func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	if err := json5.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := cfg.EnabledSources(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Init writes default config.json and proxies.txt if they don't already exist.
func Init() ([]string, error) {
	var created []string

	dir, err := ConfigDir()
	if err != nil {
		return created, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, DefaultConfig()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	proxiesPath := filepath.Join(dir, ProxiesFileName)
	if _, err := os.Stat(proxiesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(proxiesPath, []byte("# one proxy URL per line\n"), 0o644); err != nil {
			return created, err
		}
		created = append(created, proxiesPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// LoadProxies returns proxies from the flag, then JOBSCOUT_PROXIES, then
// proxies.txt.
func LoadProxies(flagValue string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv("JOBSCOUT_PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	path, err := ProxiesPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
