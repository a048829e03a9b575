// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jackson

import (
	"sort"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

// EnvPrefix prefixes the environment variables read by ConfigFromFile,
// for example JACKSON_SERIALIZATION_WRAP_ROOT_VALUE.
const EnvPrefix = "JACKSON"

// Config holds mapper defaults loaded from a configuration source.
type Config struct {
	// Serialization and Deserialization map snake case feature names
	// (for example "wrap_root_value") to their state.
	Serialization   map[string]bool `mapstructure:"serialization"`
	Deserialization map[string]bool `mapstructure:"deserialization"`
	// Format is the default time layout, see WithFormat.
	Format  string        `mapstructure:"format"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig configures the mapper logger.
type LoggingConfig struct {
	// Level is a zap level name such as "debug" or "info".
	// An empty level disables logging.
	Level string `mapstructure:"level"`
}

// LoadConfig reads a Config from v and validates the feature names.
func LoadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, xerrors.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := cfg.Features(); err != nil {
		return Config{}, err
	}
	if cfg.Logging.Level != "" {
		if _, err := zap.ParseAtomicLevel(cfg.Logging.Level); err != nil {
			return Config{}, xerrors.Errorf("logging.level: %w", err)
		}
	}
	return cfg, nil
}

// ConfigFromFile reads a Config from the file at path.
// Environment variables prefixed with EnvPrefix override file values.
func ConfigFromFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindFeatureEnv(v)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, xerrors.Errorf("failed to read config file: %w", err)
	}
	return LoadConfig(v)
}

// bindFeatureEnv makes every feature key known to v so that
// environment variables are seen by Unmarshal.
func bindFeatureEnv(v *viper.Viper) {
	for _, n := range serializationFeatureNames {
		_ = v.BindEnv("serialization." + strings.ToLower(n))
	}
	for _, n := range deserializationFeatureNames {
		_ = v.BindEnv("deserialization." + strings.ToLower(n))
	}
	_ = v.BindEnv("format")
	_ = v.BindEnv("logging.level")
}

// Features converts the configured feature names into a FeatureSet.
func (c Config) Features() (FeatureSet, error) {
	fs := make(FeatureSet)
	for _, sec := range []struct {
		name          string
		serialization bool
		values        map[string]bool
	}{
		{"serialization", true, c.Serialization},
		{"deserialization", false, c.Deserialization},
	} {
		names := make([]string, 0, len(sec.values))
		for n := range sec.values {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			f, ok := lookupFeature(sec.serialization, n)
			if !ok {
				return nil, xerrors.Errorf("%s: unknown feature %q", sec.name, n)
			}
			fs[f] = sec.values[n]
		}
	}
	return fs, nil
}

// Logger builds the logger selected by the logging level.
func (c Config) Logger() (*zap.Logger, error) {
	if c.Logging.Level == "" {
		return zap.NewNop(), nil
	}
	lvl, err := zap.ParseAtomicLevel(c.Logging.Level)
	if err != nil {
		return nil, xerrors.Errorf("logging.level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}

// Options returns the mapper options described by c.
func (c Config) Options() ([]Option, error) {
	fs, err := c.Features()
	if err != nil {
		return nil, err
	}
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}
	opts := []Option{WithFeatures(fs), WithLogger(logger)}
	if c.Format != "" {
		opts = append(opts, WithFormat(c.Format))
	}
	logger.Debug("loaded mapper config", zap.Int("features", len(fs)), zap.String("format", c.Format))
	return opts, nil
}
