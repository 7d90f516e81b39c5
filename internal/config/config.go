// Package config assembles runtime settings from defaults, an optional YAML
// file, an optional .env file and EXHIBIT_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "EXHIBIT_"

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverBlob     = "blob"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Blob drivers.
const (
	BlobFilesystem = "fs"
	BlobS3         = "s3"
	BlobMemory     = "memory"
)

// Config is the complete runtime configuration.
type Config struct {
	HTTP     HTTP    `yaml:"http"`
	Storage  Storage `yaml:"storage"`
	Log      Log     `yaml:"log"`
	Metrics  Metrics `yaml:"metrics"`
	Timezone string  `yaml:"timezone"`
}

// HTTP configures the API listener.
type HTTP struct {
	Addr              string        `yaml:"addr"`
	CORSOrigins       []string      `yaml:"cors_origins"`
	MaxImportBytes    int64         `yaml:"max_import_bytes"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// Storage selects and configures the persistence gateway.
type Storage struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	Redis       Redis  `yaml:"redis"`
	Blob        Blob   `yaml:"blob"`
}

// Redis configures the redis gateway.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// Blob configures the snapshot gateway and its object store.
type Blob struct {
	Driver  string `yaml:"driver"`
	FSRoot  string `yaml:"fs_root"`
	Prefix  string `yaml:"prefix"`
	Retain  int    `yaml:"retain"`
	Lenient bool   `yaml:"lenient"`
	S3      S3     `yaml:"s3"`
}

// S3 configures an S3 or MinIO bucket. Empty credentials use the default AWS chain.
type S3 struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Trace writes one JSON line per service operation span to the log output.
	Trace bool `yaml:"trace"`
}

// Metrics configures the Prometheus exporter.
type Metrics struct {
	Namespace string `yaml:"namespace"`
	// Expvar additionally publishes operation counters under /debug/vars.
	Expvar bool `yaml:"expvar"`
}

// Default returns the settings used when nothing is configured: a local
// filesystem snapshot store that tolerates a corrupt newest snapshot.
func Default() Config {
	return Config{
		HTTP: HTTP{
			Addr:              ":8080",
			MaxImportBytes:    10 << 20,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Storage: Storage{
			Driver:     DriverBlob,
			SQLitePath: "exhibits.db",
			Redis:      Redis{Addr: "localhost:6379", Key: "exhibitcore:exhibits"},
			Blob: Blob{
				Driver:  BlobFilesystem,
				FSRoot:  "./data",
				Prefix:  "exhibits/",
				Retain:  10,
				Lenient: true,
				S3:      S3{Region: "us-east-1"},
			},
		},
		Log:      Log{Level: "info", Format: "json"},
		Metrics:  Metrics{Namespace: "exhibitcore"},
		Timezone: "UTC",
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it. A .env file in the working directory is applied when present.
func Load(path string) (Config, error) {
	return load(path, DefaultEnvFile, os.LookupEnv)
}

func load(path, envFile string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path) // #nosec G304 -- operator supplied config path
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	dotenv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	}
	// process environment wins over .env
	get := func(key string) (string, bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+key]
		return v, ok
	}
	if err := applyEnv(&cfg, get); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, get func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := get(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	str("HTTP_ADDR", &cfg.HTTP.Addr)
	if v, ok := get("CORS_ORIGINS"); ok {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	if v, ok := get("MAX_IMPORT_BYTES"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_IMPORT_BYTES: %w", EnvPrefix, err))
		} else {
			cfg.HTTP.MaxImportBytes = n
		}
	}

	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("SQLITE_PATH", &cfg.Storage.SQLitePath)
	str("POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	str("REDIS_ADDR", &cfg.Storage.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Storage.Redis.Password)
	integer("REDIS_DB", &cfg.Storage.Redis.DB)
	str("REDIS_KEY", &cfg.Storage.Redis.Key)

	str("BLOB_DRIVER", &cfg.Storage.Blob.Driver)
	str("BLOB_FS_ROOT", &cfg.Storage.Blob.FSRoot)
	str("BLOB_PREFIX", &cfg.Storage.Blob.Prefix)
	integer("BLOB_RETAIN", &cfg.Storage.Blob.Retain)
	boolean("LENIENT_LOAD", &cfg.Storage.Blob.Lenient)
	str("BLOB_S3_BUCKET", &cfg.Storage.Blob.S3.Bucket)
	str("BLOB_S3_REGION", &cfg.Storage.Blob.S3.Region)
	str("BLOB_S3_ENDPOINT", &cfg.Storage.Blob.S3.Endpoint)
	boolean("BLOB_S3_PATH_STYLE", &cfg.Storage.Blob.S3.PathStyle)
	str("BLOB_S3_ACCESS_KEY_ID", &cfg.Storage.Blob.S3.AccessKeyID)
	str("BLOB_S3_SECRET_ACCESS_KEY", &cfg.Storage.Blob.S3.SecretAccessKey)

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	boolean("LOG_TRACE", &cfg.Log.Trace)
	str("METRICS_NAMESPACE", &cfg.Metrics.Namespace)
	boolean("METRICS_EXPVAR", &cfg.Metrics.Expvar)
	str("TIMEZONE", &cfg.Timezone)
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects settings that cannot produce a working process.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverMemory, DriverBlob, DriverSQLite, DriverRedis:
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Storage.Driver == DriverBlob {
		switch c.Storage.Blob.Driver {
		case BlobFilesystem, BlobMemory:
		case BlobS3:
			if strings.TrimSpace(c.Storage.Blob.S3.Bucket) == "" {
				errs = append(errs, errors.New("storage.blob.s3.bucket is required for the s3 blob driver"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown blob driver %q", c.Storage.Blob.Driver))
		}
		if c.Storage.Blob.Retain < 1 {
			errs = append(errs, errors.New("storage.blob.retain must be at least 1"))
		}
	}
	if c.HTTP.MaxImportBytes <= 0 {
		errs = append(errs, errors.New("http.max_import_bytes must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves the time zone used to scope serial numbers.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
