package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/KaramelBytes/tableloom/internal/filter"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TABLELOOM_LISTEN_ADDR.
const EnvPrefix = "TABLELOOM"

// Global configuration structure.
type Global struct {
	ListenAddr         string `mapstructure:"listen_addr" yaml:"listen_addr"`
	LogLevel           string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat          string `mapstructure:"log_format" yaml:"log_format"`
	SeqURL             string `mapstructure:"seq_url" yaml:"seq_url,omitempty"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec"`
	PreviewRows        int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	// DataDir resolves relative dataset paths; empty means the working directory.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir,omitempty"`

	Datasets []Profile `mapstructure:"datasets" yaml:"datasets,omitempty"`
}

// Dir returns ~/.tableloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tableloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tableloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is applied to the environment first when present.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("seq_url", "")
	v.SetDefault("shutdown_timeout_sec", 10)
	v.SetDefault("preview_rows", 10)
	v.SetDefault("data_dir", "")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicit --config must exist; the default location is optional
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		openRangeBounds,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&c, hooks); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(c.Datasets) == 0 {
		c.Datasets = DefaultProfiles()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var rangeType = reflect.TypeOf(filter.Range{})

// openRangeBounds makes a range bound that is omitted or null in the config
// file open, as it is in the JSON and query forms.
func openRangeBounds(_, to reflect.Type, data any) (any, error) {
	if to.Kind() == reflect.Pointer {
		to = to.Elem()
	}
	m, ok := data.(map[string]any)
	if to != rangeType || !ok {
		return data, nil
	}
	out := make(map[string]any, len(m)+2)
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	if v, ok := out["low"]; !ok || v == nil {
		out["low"] = math.Inf(-1)
	}
	if v, ok := out["high"]; !ok || v == nil {
		out["high"] = math.Inf(1)
	}
	return out, nil
}

// Validate checks dataset profiles for duplicate names and bad chart specs.
func (c *Global) Validate() error {
	seen := map[string]bool{}
	for _, p := range c.Datasets {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return fmt.Errorf("dataset %q: duplicate name", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Dataset returns the profile called name.
func (c *Global) Dataset(name string) (Profile, error) {
	for _, p := range c.Datasets {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
}

// ResolvePath returns the dataset file path, relative paths joined to DataDir.
func (c *Global) ResolvePath(p Profile) string {
	if filepath.IsAbs(p.Path) || c.DataDir == "" {
		return p.Path
	}
	return filepath.Join(c.DataDir, p.Path)
}
