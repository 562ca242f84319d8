// Package config loads the console configuration file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	BackendURL     string          `yaml:"backend_url"`
	RequestTimeout time.Duration   `yaml:"request_timeout"`
	StrictSchemas  bool            `yaml:"strict_schemas"`
	ProgressDelays []time.Duration `yaml:"progress_delays"`
	Query          QueryConfig     `yaml:"query"`
	Cluster        ClusterConfig   `yaml:"cluster"`
	Catalog        CatalogConfig   `yaml:"catalog"`
}

type QueryConfig struct {
	MasterIP   string `yaml:"master_ip"`
	PlanNumber int    `yaml:"plan_number"`
}

type ClusterConfig struct {
	BoundDataset string `yaml:"bound_dataset"`
	SyncSchedule string `yaml:"sync_schedule"`
}

type CatalogConfig struct {
	RedisURL string        `yaml:"redis_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

func Default() Config {
	return Config{
		BackendURL:     "http://localhost:8080",
		RequestTimeout: 30 * time.Minute,
		ProgressDelays: []time.Duration{3 * time.Second, 5 * time.Second, 8 * time.Second},
		Query: QueryConfig{
			MasterIP:   "192.168.165.27",
			PlanNumber: 0,
		},
		Catalog: CatalogConfig{
			CacheTTL: 30 * time.Second,
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: backend_url %q must be an http(s) URL", ErrInvalidConfig, c.BackendURL)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request_timeout must not be negative", ErrInvalidConfig)
	}

	for _, d := range c.ProgressDelays {
		if d <= 0 {
			return fmt.Errorf("%w: progress_delays must be positive", ErrInvalidConfig)
		}
	}

	if c.Query.PlanNumber < 0 {
		return fmt.Errorf("%w: query.plan_number must not be negative", ErrInvalidConfig)
	}

	return nil
}
