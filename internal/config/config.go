package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"example.com/flightlog/internal/common"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

// DefaultInput is the file read when nothing else is configured.
const DefaultInput = "log.hex"

type Config struct {
	Input       string           `yaml:"input" toml:"input"`
	Binary      bool             `yaml:"binary" toml:"binary"`
	CSV         string           `yaml:"csv" toml:"csv"`
	Summary     string           `yaml:"summary" toml:"summary"`
	PDF         string           `yaml:"pdf" toml:"pdf"`
	Diagnostics string           `yaml:"diagnostics" toml:"diagnostics"`
	Lang        string           `yaml:"lang" toml:"lang"`
	Metrics     bool             `yaml:"metrics" toml:"metrics"`
	Logs        common.LogConfig `yaml:"logs" toml:"logs"`
}

// Default returns the configuration used without a config file.
func Default() Config {
	return Config{
		Input: DefaultInput,
		CSV:   "-",
		Lang:  "en",
	}
}

// Load reads a YAML or TOML config file, chosen by extension, and fills
// defaults. Relative paths are resolved against the config file directory.
func Load(path string) (Config, error) {
	cfg := Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	baseDir := filepath.Dir(path)
	resolvePath := func(p string) string {
		p = strings.TrimSpace(p)
		if p == "" || p == "-" {
			return p
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Clean(filepath.Join(baseDir, p))
	}
	if strings.TrimSpace(cfg.Input) == "" {
		cfg.Input = DefaultInput
	}
	if strings.TrimSpace(cfg.CSV) == "" {
		cfg.CSV = "-"
	}
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}
	cfg.Input = resolvePath(cfg.Input)
	cfg.CSV = resolvePath(cfg.CSV)
	cfg.Summary = resolvePath(cfg.Summary)
	cfg.PDF = resolvePath(cfg.PDF)
	cfg.Diagnostics = resolvePath(cfg.Diagnostics)
	cfg.Logs.File = resolvePath(cfg.Logs.File)
	return cfg, nil
}
