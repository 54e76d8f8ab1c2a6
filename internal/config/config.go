package config

import (
	"log/slog"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Output is the directory extracted files are written to.
	Output string `yaml:"output" env:"GSE_OUTPUT"`
	// ChunkSize is the number of bytes read at a time.
	ChunkSize int `yaml:"chunkSize" env:"GSE_CHUNK_SIZE"`
	// Tracks limits extraction to these track numbers. Empty means all.
	Tracks []uint64 `yaml:"tracks,omitempty" env:"GSE_TRACKS"`
	// Attachments enables writing attachments, e.g. fonts.
	Attachments bool `yaml:"attachments" env:"GSE_ATTACHMENTS"`
	// Chapters enables writing the chapters as a text file.
	Chapters bool `yaml:"chapters" env:"GSE_CHAPTERS"`

	Prometheus *PrometheusConfig `yaml:"prometheus,omitempty"`

	LogLevel slog.Level `yaml:"logLevel" env:"GSE_LOG_LEVEL"`
}

type PrometheusConfig struct {
	Enabled bool   `yaml:"enabled" env:"GSE_PROMETHEUS_ENABLED"`
	Port    uint16 `yaml:"port" env:"GSE_PROMETHEUS_PORT"`
}

// DefaultConfig returns the default config.
func DefaultConfig() *Config {
	return &Config{
		Output:    ".",
		ChunkSize: 64 * 1024,

		Attachments: false,
		Chapters:    false,

		Prometheus: &PrometheusConfig{
			Enabled: false,
			Port:    8080,
		},

		LogLevel: slog.LevelInfo,
	}
}

// PopulateFromEnvironment populates the config with values from environment
// variables.
func (c *Config) PopulateFromEnvironment() error {
	if err := env.Parse(c); err != nil {
		return errors.Wrap(err, "failed to read config from environment")
	}

	return nil
}

// ReadConfig reads a config file from the specified path.
func ReadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, errors.Wrapf(openErr, "failed to open config file %s", path)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if decodeErr := decoder.Decode(config); decodeErr != nil {
		return nil, errors.Wrapf(decodeErr, "failed to read config file %s", path)
	}

	return config, nil
}

// Validate checks that the config can be used.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.Newf("chunk size must be positive, got %d", c.ChunkSize)
	}

	if c.Output == "" {
		return errors.New("output directory must be set")
	}

	return nil
}

// WantsTrack reports whether the track with the given number is extracted.
func (c *Config) WantsTrack(trackNumber uint64) bool {
	if len(c.Tracks) == 0 {
		return true
	}

	for _, track := range c.Tracks {
		if track == trackNumber {
			return true
		}
	}

	return false
}
