package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func loadFrom(t *testing.T, configToml string) (*Config, error) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(configToml), 0o644); err != nil {
		t.Fatal(err)
	}
	previous, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(previous) })
	return LoadConfig()
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	config, err := loadFrom(t, `
[backend]
url = "http://127.0.0.1"
port = 8188
`)
	if err != nil {
		t.Fatal(err)
	}

	if config.Backend.Url != "http://127.0.0.1" || config.Backend.Port != 8188 {
		t.Errorf("unexpected backend %+v", config.Backend)
	}
	if config.Cache.Path != DefaultCachePath {
		t.Errorf("expected default cache path, got %q", config.Cache.Path)
	}
	if len(config.Booru.Websites) == 0 || config.Booru.DefaultWebsite != config.Booru.Websites[0] {
		t.Errorf("unexpected booru defaults %+v", config.Booru)
	}
	if config.Logging.Level != "info" || config.Logging.Format != "text" {
		t.Errorf("unexpected logging defaults %+v", config.Logging)
	}

	if config.Sync.ListingDebounce() != DefaultListingDebounceMs {
		t.Errorf("unexpected listing debounce %d", config.Sync.ListingDebounce())
	}
	if config.Sync.SearchDebounce() != DefaultSearchDebounceMs {
		t.Errorf("unexpected search debounce %d", config.Sync.SearchDebounce())
	}
	if config.Sync.FetchTimeout() != DefaultFetchTimeoutSec {
		t.Errorf("unexpected fetch timeout %d", config.Sync.FetchTimeout())
	}
}

func TestLoadConfigHonorsSyncOverrides(t *testing.T) {
	config, err := loadFrom(t, `
[backend]
url = "http://127.0.0.1"
port = 8188

[sync]
listingDebounceMs = 100
searchDebounceMs = 900
fetchTimeoutSec = 10
`)
	if err != nil {
		t.Fatal(err)
	}

	if config.Sync.ListingDebounce() != 100 {
		t.Errorf("unexpected listing debounce %d", config.Sync.ListingDebounce())
	}
	if config.Sync.SearchDebounce() != 900 {
		t.Errorf("unexpected search debounce %d", config.Sync.SearchDebounce())
	}
	if config.Sync.FetchTimeout() != 10 {
		t.Errorf("unexpected fetch timeout %d", config.Sync.FetchTimeout())
	}
}

func TestLoadConfigRejectsBadBackendUrl(t *testing.T) {
	_, err := loadFrom(t, `
[backend]
url = "not a url"
`)
	if err == nil {
		t.Fatal("expected validation to reject a malformed backend url")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	dir := t.TempDir()
	previous, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(previous) })

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error when config.toml is absent")
	}
}
