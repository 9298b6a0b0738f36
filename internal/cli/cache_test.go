package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/flowview/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir(config.CacheConfig{})
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", "flowview"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", custom)

	dir, err := cacheDir(config.CacheConfig{})
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(custom, "flowview"); dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestCacheDirConfigured(t *testing.T) {
	dir, err := cacheDir(config.CacheConfig{Dir: "/srv/flowview-cache"})
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != "/srv/flowview-cache" {
		t.Errorf("cacheDir() = %q, want the configured dir", dir)
	}
}

func TestCacheClearCommand(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(t.TempDir(), "station.svg")
	if _, err := env.run(t, "render", stationPath, "-o", out); err != nil {
		t.Fatalf("render: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(env.cacheHome, "flowview"))
	if len(entries) == 0 {
		t.Fatal("render left the cache empty")
	}

	env.ui.Reset()
	if _, err := env.run(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(env.ui.String(), "Cleared") {
		t.Errorf("cache clear output = %q", env.ui.String())
	}

	env.ui.Reset()
	if _, err := env.run(t, "cache", "clear"); err != nil {
		t.Fatalf("second cache clear: %v", err)
	}
	if !strings.Contains(env.ui.String(), "Cleared 0") && !strings.Contains(env.ui.String(), "empty") {
		t.Errorf("second cache clear output = %q", env.ui.String())
	}
}

func TestCachePathCommand(t *testing.T) {
	env := newTestEnv(t)
	got, err := env.run(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if want := filepath.Join(env.cacheHome, "flowview") + "\n"; got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}

func TestCacheClearNonFileBackend(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("FLOWVIEW_CACHE_BACKEND", "memory")
	if _, err := env.run(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(env.ui.String(), "memory") {
		t.Errorf("cache clear output = %q, want a note about the memory backend", env.ui.String())
	}
}
