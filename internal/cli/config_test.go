package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
algorithm = "idastar"
threads = 8
node_budget = 5000
timeout = "90s"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
redis_db = 2

[store]
mongo_uri = "mongodb://localhost:27017"

[server]
addr = ":9090"
`)

	got, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	want := Config{
		Algorithm:  "idastar",
		Threads:    8,
		NodeBudget: 5000,
		Timeout:    Duration{90 * time.Second},
		Cache:      CacheConfig{Backend: "redis", RedisAddr: "localhost:6379", RedisDB: 2},
		Store:      StoreConfig{MongoURI: "mongodb://localhost:27017"},
		Server:     ServerConfig{Addr: ":9090"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	got, err := loadConfig(writeConfig(t, `threads = 2`))
	if err != nil {
		t.Fatal(err)
	}
	want := defaultConfig()
	want.Threads = 2
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigDefaultLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	got, err := loadConfig("")
	if err != nil {
		t.Fatalf("missing default config should not fail: %v", err)
	}
	if diff := cmp.Diff(defaultConfig(), got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`algorithm = "bnb"`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if got.Algorithm != "bnb" {
		t.Errorf("Algorithm = %q, want bnb", got.Algorithm)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `algorithm = `},
		{"unknown key", `colour = "blue"`},
		{"bad backend", "[cache]\nbackend = \"memcached\""},
		{"redis without addr", "[cache]\nbackend = \"redis\""},
		{"bad duration", `timeout = "soon"`},
		{"negative timeout", `timeout = "-1s"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("explicit missing config should fail")
	}
}
