package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MrJJimenez/jobscout/internal/models"
)

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv("JOBSCOUT_MAX_RESULTS", "40")
	t.Setenv("JOBSCOUT_SOURCES", "indeed, zip")
	t.Setenv("JOBSCOUT_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("JOBSCOUT_RETRY_ATTEMPTS", "nope")

	cfg := DefaultConfig()
	if cfg.Search.MaxResults != 40 {
		t.Fatalf("MaxResults = %d, want 40", cfg.Search.MaxResults)
	}
	if cfg.Scraper.RequestsPerSecond != 0.5 {
		t.Fatalf("RequestsPerSecond = %v, want 0.5", cfg.Scraper.RequestsPerSecond)
	}
	if cfg.Scraper.RetryAttempts != 3 {
		t.Fatalf("RetryAttempts = %d, want fallback 3", cfg.Scraper.RetryAttempts)
	}
	sources, err := cfg.EnabledSources()
	if err != nil {
		t.Fatalf("EnabledSources() error = %v", err)
	}
	if len(sources) != 2 || sources[0] != models.SourceIndeed || sources[1] != models.SourceZipRecruiter {
		t.Fatalf("EnabledSources() = %v", sources)
	}
}

func TestLoadFileJSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	body := `{
  // comments and trailing commas are fine
  search: {max_results: 10, sources: ["linkedin", "stepstone"],},
  adzuna: {app_id: "id", app_key: "key"},
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Search.MaxResults != 10 {
		t.Fatalf("MaxResults = %d, want 10", cfg.Search.MaxResults)
	}
	if cfg.Search.MaxTimeoutMs != 60000 {
		t.Fatalf("MaxTimeoutMs = %d, want default 60000", cfg.Search.MaxTimeoutMs)
	}
	if cfg.Adzuna.AppID != "id" || cfg.Adzuna.Country != "us" {
		t.Fatalf("Adzuna = %+v", cfg.Adzuna)
	}
}

func TestLoadFileRejectsUnknownSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"search": {"sources": ["monster"]}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestLoadFileMissingOrBlank(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFile(filepath.Join(dir, "missing.json"))
	if err != nil || cfg.Server.Listen != ":8080" {
		t.Fatalf("LoadFile(missing) = %+v, %v", cfg.Server, err)
	}

	blank := filepath.Join(dir, "blank.json")
	if err := os.WriteFile(blank, []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(blank); err != nil {
		t.Fatalf("LoadFile(blank) error = %v", err)
	}
}

func TestInitAndLoadProxies(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("JOBSCOUT_PROXIES", "")

	created, err := Init()
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("Init() created %v, want config and proxies", created)
	}
	again, err := Init()
	if err != nil || len(again) != 0 {
		t.Fatalf("second Init() = %v, %v", again, err)
	}

	path, err := ProxiesPath()
	if err != nil {
		t.Fatalf("ProxiesPath() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("# comment\nhttp://a:1\n\nhttp://b:2\n"), 0o644); err != nil {
		t.Fatalf("write proxies: %v", err)
	}
	proxies, err := LoadProxies("")
	if err != nil || len(proxies) != 2 {
		t.Fatalf("LoadProxies() = %v, %v", proxies, err)
	}

	proxies, _ = LoadProxies("http://c:3, http://d:4")
	if len(proxies) != 2 || proxies[0] != "http://c:3" {
		t.Fatalf("LoadProxies(flag) = %v", proxies)
	}

	storePath, err := DefaultConfig().StorePath()
	if err != nil || filepath.Base(storePath) != StoreDirName {
		t.Fatalf("StorePath() = %q, %v", storePath, err)
	}
}
