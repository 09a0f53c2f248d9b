// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the gatesim command configuration.
//
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the configuration file.
//
const (
	EnvLogLevel  = "GATESIM_LOG_LEVEL"
	EnvLogFormat = "GATESIM_LOG_FORMAT"
)

// maxFileSize bounds the size of configuration files.
const maxFileSize = 1 << 20

// Config is the command configuration.
//
type Config struct {
	Simulation Simulation `yaml:"simulation"`
	Log        Log        `yaml:"log"`
	Metrics    Metrics    `yaml:"metrics"`
	Tracing    Tracing    `yaml:"tracing"`
}

// Simulation holds engine settings.
//
type Simulation struct {
	IterationLimit int `yaml:"iteration_limit"`
	Workers        int `yaml:"workers"`     // per circuit
	Parallelism    int `yaml:"parallelism"` // concurrent simulations
}

// Log holds logger settings.
//
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Metrics holds the Prometheus endpoint settings. An empty Addr disables the
// endpoint.
//
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Tracing holds OpenTelemetry settings.
//
type Tracing struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // only stdout is supported
}

// Default returns the default configuration.
//
func Default() *Config {
	return &Config{
		Simulation: Simulation{IterationLimit: 1000, Workers: 1},
		Log:        Log{Level: "info", Format: "text"},
		Tracing:    Tracing{Exporter: "stdout"},
	}
}

// Load reads the configuration from the named YAML file on top of the
// defaults, then applies environment overrides. An empty filename only
// applies the environment.
//
func Load(filename string) (*Config, error) {
	c := Default()
	if filename != "" {
		fi, err := os.Stat(filename)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load configuration")
		}
		if fi.Size() > maxFileSize {
			return nil, errors.Errorf("%s: configuration file too large (%d bytes)", filename, fi.Size())
		}
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load configuration")
		}
		if err = Parse(data, c); err != nil {
			return nil, errors.Wrap(err, filename)
		}
	}
	c.applyEnv(os.LookupEnv)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes YAML data into c. Unknown keys are rejected.
//
func Parse(data []byte, c *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			// empty document
			return nil
		}
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Log.Format = v
	}
}

// Validate checks the configuration values.
//
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("invalid log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.Errorf("invalid log format %q", c.Log.Format)
	}
	if c.Simulation.IterationLimit < 0 {
		return errors.Errorf("invalid iteration limit %d", c.Simulation.IterationLimit)
	}
	if c.Simulation.Workers < 0 || c.Simulation.Parallelism < 0 {
		return errors.New("worker counts must not be negative")
	}
	if c.Tracing.Enabled && strings.ToLower(c.Tracing.Exporter) != "stdout" {
		return errors.Errorf("unsupported tracing exporter %q", c.Tracing.Exporter)
	}
	return nil
}
