package decoder

import (
	"fmt"
	"time"

	"github.com/mstoykov/envconfig"
	"gopkg.in/guregu/null.v3"

	"go.k6.io/smdecode/lib/consts"
	"go.k6.io/smdecode/lib/types"
	"go.k6.io/smdecode/sourcemap"
)

// Config holds the tunables of a Decoder.
type Config struct {
	// Timeout bounds a single retrieval, 0 disables it.
	Timeout types.NullDuration `json:"timeout" envconfig:"SMDECODE_TIMEOUT"`

	// CacheSize is how many decoded sourcemaps are kept around, 0 disables the cache.
	CacheSize null.Int `json:"cacheSize" envconfig:"SMDECODE_CACHE_SIZE"`

	SourceRootPolicy null.String `json:"sourceRootPolicy" envconfig:"SMDECODE_SOURCE_ROOT_POLICY"`
	UserAgent        null.String `json:"userAgent" envconfig:"SMDECODE_USER_AGENT"`
}

// NewConfig creates a new Config instance with default values for all fields.
func NewConfig() Config {
	return Config{
		Timeout:          types.NewNullDuration(30*time.Second, false),
		CacheSize:        null.NewInt(16, false),
		SourceRootPolicy: null.NewString(sourcemap.JoinSourceRoot.String(), false),
		UserAgent:        null.NewString(consts.UserAgent(), false),
	}
}

// Apply saves the valid values of cfg in the receiver.
func (c Config) Apply(cfg Config) Config {
	if cfg.Timeout.Valid {
		c.Timeout = cfg.Timeout
	}
	if cfg.CacheSize.Valid {
		c.CacheSize = cfg.CacheSize
	}
	if cfg.SourceRootPolicy.Valid && cfg.SourceRootPolicy.String != "" {
		c.SourceRootPolicy = cfg.SourceRootPolicy
	}
	if cfg.UserAgent.Valid && cfg.UserAgent.String != "" {
		c.UserAgent = cfg.UserAgent
	}
	return c
}

// Validate checks the values that can't be caught while parsing.
func (c Config) Validate() error {
	if c.CacheSize.Int64 < 0 {
		return fmt.Errorf("the cache size must not be negative, got %d", c.CacheSize.Int64)
	}
	if _, err := sourcemap.ParseSourceRootPolicy(c.SourceRootPolicy.String); err != nil {
		return err
	}
	return nil
}

// ConfigFromEnv reads the SMDECODE_* variables of env into a Config with only
// the fields that were set marked as valid.
func ConfigFromEnv(env map[string]string) (Config, error) {
	var conf Config
	err := envconfig.Process("", &conf, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	if err != nil {
		return Config{}, fmt.Errorf("couldn't parse the decoder environment: %w", err)
	}
	return conf, nil
}

// GetConsolidatedConfig layers the defaults, the environment and the
// explicitly passed cli values, in that order, and validates the result.
func GetConsolidatedConfig(env map[string]string, cli Config) (Config, error) {
	envConf, err := ConfigFromEnv(env)
	if err != nil {
		return Config{}, err
	}
	result := NewConfig().Apply(envConf).Apply(cli)
	if err := result.Validate(); err != nil {
		return Config{}, err
	}
	return result, nil
}
