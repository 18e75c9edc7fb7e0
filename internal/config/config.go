// Package config loads engine configuration from YAML and validates it
// against an embedded CUE schema before any component sees it.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/machiya/archidb/internal/pager"
)

// schema is the validation contract for a loaded Config. Field constraints
// live here, defaulting lives in withDefaults: the schema checks what the
// user wrote plus the applied defaults, in one place.
const schema = `
url: string & !=""
page_size: int & >=4096
max_pages: int & >0
fetch_rate: number & >=0
retry: {
	attempts: int & >0
	base_ms:  int & >0
}
`

// Retry bounds transient fetch retries.
type Retry struct {
	Attempts int `yaml:"attempts" json:"attempts"`
	BaseMs   int `yaml:"base_ms" json:"base_ms"`
}

// Config is the full engine configuration.
type Config struct {
	// URL of the remote database file. Required.
	URL string `yaml:"url" json:"url"`

	// PageSize is the fetch granularity in bytes, a multiple of 4096.
	PageSize int `yaml:"page_size" json:"page_size"`

	// MaxPages caps the in-memory page cache.
	MaxPages int `yaml:"max_pages" json:"max_pages"`

	// FetchRate limits page fetches per second; 0 disables the limiter.
	FetchRate float64 `yaml:"fetch_rate" json:"fetch_rate"`

	Retry Retry `yaml:"retry" json:"retry"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		PageSize:  16384,
		MaxPages:  256,
		FetchRate: 0,
		Retry:     Retry{Attempts: 3, BaseMs: 200},
	}
}

func (c Config) withDefaults() Config {
	d := Default()
	if c.PageSize == 0 {
		c.PageSize = d.PageSize
	}
	if c.MaxPages == 0 {
		c.MaxPages = d.MaxPages
	}
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = d.Retry.Attempts
	}
	if c.Retry.BaseMs == 0 {
		c.Retry.BaseMs = d.Retry.BaseMs
	}
	return c
}

// Load reads a YAML configuration file, applies defaults, and validates.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes, applies defaults, and validates.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration against the embedded schema plus the
// constraints CUE cannot express.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	sv := ctx.CompileString(schema)
	if err := sv.Err(); err != nil {
		return fmt.Errorf("internal: config schema: %w", err)
	}

	unified := sv.Unify(ctx.Encode(c))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.PageSize%4096 != 0 {
		return fmt.Errorf("invalid config: page_size %d is not a multiple of 4096", c.PageSize)
	}
	return nil
}

// PagerConfig translates the validated configuration into the page store's
// own config type.
func (c Config) PagerConfig() pager.Config {
	return pager.Config{
		URL:         c.URL,
		PageSize:    int64(c.PageSize),
		MaxPages:    c.MaxPages,
		MaxAttempts: c.Retry.Attempts,
		RetryBase:   time.Duration(c.Retry.BaseMs) * time.Millisecond,
		FetchRate:   rate.Limit(c.FetchRate),
	}
}
