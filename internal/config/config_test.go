package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := load("", "", noEnv)
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Storage.Driver != DriverBlob || cfg.Storage.Blob.Driver != BlobFilesystem || !cfg.Storage.Blob.Lenient {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.HTTP.MaxImportBytes != 10<<20 {
		t.Fatalf("unexpected http defaults %+v", cfg.HTTP)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC location, got %v (%v)", loc, err)
	}
}

func TestYAMLThenDotenvThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "exhibitd.yaml", `
http:
  addr: ":9000"
  cors_origins: ["https://unit.example"]
  shutdown_timeout: 3s
storage:
  driver: sqlite
  sqlite_path: /var/lib/exhibits.db
log:
  level: debug
  format: text
`)
	envPath := writeFile(t, dir, ".env", "EXHIBIT_SQLITE_PATH=/srv/dotenv.db\nEXHIBIT_HTTP_ADDR=:7000\n")

	cfg, err := load(yamlPath, envPath, envMap(map[string]string{"EXHIBIT_HTTP_ADDR": ":6000"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverSQLite {
		t.Fatalf("expected yaml driver, got %s", cfg.Storage.Driver)
	}
	if cfg.Storage.SQLitePath != "/srv/dotenv.db" {
		t.Fatalf("expected .env to override yaml, got %s", cfg.Storage.SQLitePath)
	}
	if cfg.HTTP.Addr != ":6000" {
		t.Fatalf("expected process env to override .env, got %s", cfg.HTTP.Addr)
	}
	if cfg.HTTP.ShutdownTimeout != 3*time.Second || len(cfg.HTTP.CORSOrigins) != 1 {
		t.Fatalf("unexpected http settings %+v", cfg.HTTP)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" || cfg.Storage.Blob.Retain != 10 {
		t.Fatalf("expected yaml to keep unspecified defaults, got %+v", cfg)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	cfg, err := load("", "", envMap(map[string]string{
		"EXHIBIT_STORAGE_DRIVER":     "blob",
		"EXHIBIT_BLOB_DRIVER":        "s3",
		"EXHIBIT_BLOB_S3_BUCKET":     "evidence",
		"EXHIBIT_BLOB_S3_ENDPOINT":   "http://minio:9000",
		"EXHIBIT_BLOB_S3_PATH_STYLE": "true",
		"EXHIBIT_BLOB_RETAIN":        "3",
		"EXHIBIT_LENIENT_LOAD":       "false",
		"EXHIBIT_CORS_ORIGINS":       "https://a.example, ,https://b.example",
		"EXHIBIT_MAX_IMPORT_BYTES":   "2048",
		"EXHIBIT_REDIS_DB":           "4",
		"EXHIBIT_LOG_TRACE":          "1",
		"EXHIBIT_METRICS_EXPVAR":     "true",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	blob := cfg.Storage.Blob
	if blob.Driver != BlobS3 || blob.S3.Bucket != "evidence" || !blob.S3.PathStyle || blob.Retain != 3 || blob.Lenient {
		t.Fatalf("unexpected blob config %+v", blob)
	}
	if got := strings.Join(cfg.HTTP.CORSOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Fatalf("unexpected origins %q", got)
	}
	if cfg.HTTP.MaxImportBytes != 2048 || cfg.Storage.Redis.DB != 4 {
		t.Fatalf("unexpected numeric overrides %+v", cfg)
	}
	if !cfg.Log.Trace || !cfg.Metrics.Expvar {
		t.Fatalf("expected trace and expvar switches, got %+v %+v", cfg.Log, cfg.Metrics)
	}
}

func TestUsesProcessEnvironment(t *testing.T) {
	t.Setenv("EXHIBIT_STORAGE_DRIVER", "memory")
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Fatalf("expected memory driver from environment, got %s", cfg.Storage.Driver)
	}
}

func TestInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad bool":        {"EXHIBIT_LENIENT_LOAD": "maybe"},
		"bad int":         {"EXHIBIT_REDIS_DB": "two"},
		"bad size":        {"EXHIBIT_MAX_IMPORT_BYTES": "lots"},
		"unknown driver":  {"EXHIBIT_STORAGE_DRIVER": "tape"},
		"unknown blob":    {"EXHIBIT_BLOB_DRIVER": "ftp"},
		"s3 no bucket":    {"EXHIBIT_BLOB_DRIVER": "s3"},
		"postgres no dsn": {"EXHIBIT_STORAGE_DRIVER": "postgres"},
		"bad timezone":    {"EXHIBIT_TIMEZONE": "Mars/Olympus_Mons"},
		"bad log format":  {"EXHIBIT_LOG_FORMAT": "xml"},
		"bad log level":   {"EXHIBIT_LOG_LEVEL": "loud"},
		"zero retain":     {"EXHIBIT_BLOB_RETAIN": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := load("", "", envMap(env)); err == nil {
				t.Fatalf("expected error for %v", env)
			}
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := load(filepath.Join(dir, "missing.yaml"), "", noEnv); err == nil {
		t.Fatalf("expected missing config file error")
	}
	bad := writeFile(t, dir, "bad.yaml", "storage: [unclosed")
	if _, err := load(bad, "", noEnv); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
	if _, err := load("", filepath.Join(dir, "absent.env"), noEnv); err != nil {
		t.Fatalf("missing .env must be ignored: %v", err)
	}
}
