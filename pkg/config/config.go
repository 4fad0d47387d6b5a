// Package config loads the routegen configuration file and applies
// environment overrides.
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

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/ranroutes/pkg/catalog"
	"github.com/dd0wney/ranroutes/pkg/graph"
	"github.com/dd0wney/ranroutes/pkg/logging"
	"github.com/dd0wney/ranroutes/pkg/storage"
	"github.com/dd0wney/ranroutes/pkg/validation"
)

// Defaults
const (
	DefaultOrigin     = "node0"
	DefaultStorageKey = "catalog"
	DefaultStorageDir = "catalogs"
	DefaultLogLevel   = "info"
)

// Config is the full routegen configuration
type Config struct {
	Topology    TopologyConfig    `yaml:"topology"`
	Enumeration EnumerationConfig `yaml:"enumeration"`
	Build       BuildConfig       `yaml:"build"`
	Output      OutputConfig      `yaml:"output"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Log         LogConfig         `yaml:"log"`
}

// TopologyConfig names the input files and the origin node
type TopologyConfig struct {
	NodesFile string `yaml:"nodes_file"`
	LinksFile string `yaml:"links_file"`
	Origin    string `yaml:"origin"`
}

// EnumerationConfig controls path search
type EnumerationConfig struct {
	PathLimit                int      `yaml:"path_limit"`
	HubMarkers               []string `yaml:"hub_markers"`
	HubThreshold             int      `yaml:"hub_threshold"`
	MaxPathNodes             int      `yaml:"max_path_nodes"`
	MaxDecompositionsPerPath int      `yaml:"max_decompositions_per_path"`
}

// BuildConfig controls the catalog build
type BuildConfig struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"` // 0 disables the deadline
}

// OutputConfig names the catalog file written by generate
type OutputConfig struct {
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

// StorageConfig selects where generated catalogs are saved
type StorageConfig struct {
	Backend  string         `yaml:"backend"`
	Key      string         `yaml:"key"`
	Dir      string         `yaml:"dir"`
	Compress bool           `yaml:"compress"`
	S3       S3Config       `yaml:"s3"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// S3Config configures the S3 backend. Credentials fall back to the default
// AWS chain when unset.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// PostgresConfig configures the PostgreSQL backend
type PostgresConfig struct {
	URL string `yaml:"url"`
}

// MetricsConfig names a Prometheus textfile written after each command
type MetricsConfig struct {
	File string `yaml:"file"`
}

// LogConfig sets the log level
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	markers := make([]string, len(graph.DefaultHubMarkers))
	for i, m := range graph.DefaultHubMarkers {
		markers[i] = string(m)
	}
	return &Config{
		Topology: TopologyConfig{Origin: DefaultOrigin},
		Enumeration: EnumerationConfig{
			PathLimit:    catalog.DefaultPathLimit,
			HubMarkers:   markers,
			HubThreshold: graph.DefaultHubThreshold,
		},
		Build:   BuildConfig{Workers: 1},
		Storage: StorageConfig{Backend: storage.BackendNone, Key: DefaultStorageKey, Dir: DefaultStorageDir},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads YAML from r over the defaults without environment overrides
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	c.Topology.Origin = validation.DefaultOr(c.Topology.Origin, DefaultOrigin)
	c.Storage.Backend = validation.DefaultOr(c.Storage.Backend, storage.BackendNone)
	c.Storage.Key = validation.DefaultOr(c.Storage.Key, DefaultStorageKey)
	c.Log.Level = validation.DefaultOr(c.Log.Level, DefaultLogLevel)
	return nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides fields from ROUTEGEN_* variables and LOG_LEVEL
func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"ROUTEGEN_NODES_FILE":           &c.Topology.NodesFile,
		"ROUTEGEN_LINKS_FILE":           &c.Topology.LinksFile,
		"ROUTEGEN_ORIGIN":               &c.Topology.Origin,
		"ROUTEGEN_OUTPUT":               &c.Output.Path,
		"ROUTEGEN_STORAGE_BACKEND":      &c.Storage.Backend,
		"ROUTEGEN_STORAGE_KEY":          &c.Storage.Key,
		"ROUTEGEN_STORAGE_DIR":          &c.Storage.Dir,
		"ROUTEGEN_S3_BUCKET":            &c.Storage.S3.Bucket,
		"ROUTEGEN_S3_PREFIX":            &c.Storage.S3.Prefix,
		"ROUTEGEN_S3_REGION":            &c.Storage.S3.Region,
		"ROUTEGEN_S3_ENDPOINT":          &c.Storage.S3.Endpoint,
		"ROUTEGEN_S3_ACCESS_KEY_ID":     &c.Storage.S3.AccessKeyID,
		"ROUTEGEN_S3_SECRET_ACCESS_KEY": &c.Storage.S3.SecretAccessKey,
		"ROUTEGEN_DATABASE_URL":         &c.Storage.Postgres.URL,
		"ROUTEGEN_METRICS_FILE":         &c.Metrics.File,
		"LOG_LEVEL":                     &c.Log.Level,
	}
	for key, field := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*field = v
		}
	}

	ints := map[string]*int{
		"ROUTEGEN_PATH_LIMIT":     &c.Enumeration.PathLimit,
		"ROUTEGEN_HUB_THRESHOLD":  &c.Enumeration.HubThreshold,
		"ROUTEGEN_MAX_PATH_NODES": &c.Enumeration.MaxPathNodes,
		"ROUTEGEN_WORKERS":        &c.Build.Workers,
	}
	for key, field := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*field = n
	}

	if v, ok := lookup("ROUTEGEN_HUB_MARKERS"); ok && v != "" {
		c.Enumeration.HubMarkers = splitAndTrim(v, ",")
	}
	if v, ok := lookup("ROUTEGEN_BUILD_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ROUTEGEN_BUILD_TIMEOUT %q: %w", v, err)
		}
		c.Build.Timeout = d
	}
	return nil
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	backends := []string{storage.BackendNone, storage.BackendFile, storage.BackendS3, storage.BackendPostgres}
	levels := []string{"debug", "info", "warn", "warning", "error"}

	cv := validation.NewConfigValidator("config").
		Required("topology.origin", c.Topology.Origin).
		Positive("enumeration.path_limit", c.Enumeration.PathLimit).
		Distinct("enumeration.hub_markers", c.Enumeration.HubMarkers).
		NonNegative("enumeration.hub_threshold", c.Enumeration.HubThreshold).
		NonNegative("enumeration.max_path_nodes", c.Enumeration.MaxPathNodes).
		NonNegative("enumeration.max_decompositions_per_path", c.Enumeration.MaxDecompositionsPerPath).
		Positive("build.workers", c.Build.Workers).
		NonNegativeDuration("build.timeout", c.Build.Timeout).
		OneOf("storage.backend", c.Storage.Backend, backends).
		OneOf("log.level", strings.ToLower(c.Log.Level), levels)

	cv.When(c.Storage.Backend != storage.BackendNone, func(cv *validation.ConfigValidator) {
		cv.Custom("storage.key", func() error { return storage.ValidateKey(c.Storage.Key) })
	})
	cv.When(c.Storage.Backend == storage.BackendFile, func(cv *validation.ConfigValidator) {
		cv.Required("storage.dir", c.Storage.Dir)
	})
	cv.When(c.Storage.Backend == storage.BackendS3, func(cv *validation.ConfigValidator) {
		cv.Required("storage.s3.bucket", c.Storage.S3.Bucket)
		cv.Custom("storage.s3.secret_access_key", func() error {
			if (c.Storage.S3.AccessKeyID == "") != (c.Storage.S3.SecretAccessKey == "") {
				return errors.New("access_key_id and secret_access_key must be set together")
			}
			return nil
		})
	})
	cv.When(c.Storage.Backend == storage.BackendPostgres, func(cv *validation.ConfigValidator) {
		cv.Required("storage.postgres.url", c.Storage.Postgres.URL)
	})
	return cv.Validate()
}

// BuilderConfig converts the enumeration and build sections
func (c *Config) BuilderConfig() catalog.BuilderConfig {
	hubs := make([]graph.NodeID, len(c.Enumeration.HubMarkers))
	for i, h := range c.Enumeration.HubMarkers {
		hubs[i] = graph.NodeID(h)
	}
	return catalog.BuilderConfig{
		PathLimit:         c.Enumeration.PathLimit,
		Exclusion:         graph.HubExclusion(c.Enumeration.HubThreshold, hubs...),
		MaxPathNodes:      c.Enumeration.MaxPathNodes,
		MaxDecompositions: c.Enumeration.MaxDecompositionsPerPath,
		Workers:           c.Build.Workers,
	}
}

// StorageOptions converts the storage section; metrics and logger are left
// for the caller
func (c *Config) StorageOptions() storage.Options {
	s := c.Storage
	return storage.Options{
		Backend:  s.Backend,
		Dir:      s.Dir,
		Compress: s.Compress,
		S3: storage.S3Options{
			Bucket:          s.S3.Bucket,
			Prefix:          s.S3.Prefix,
			Region:          s.S3.Region,
			Endpoint:        s.S3.Endpoint,
			AccessKeyID:     s.S3.AccessKeyID,
			SecretAccessKey: s.S3.SecretAccessKey,
		},
		PostgresURL: s.Postgres.URL,
	}
}

// LogLevel parses the configured level
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}
