package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfig = "IFRIT_CONFIG"

// Config represents the ifrit configuration file (~/.config/ifrit/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	DataDir   string `yaml:"data_dir"`
	OutputDir string `yaml:"output_dir"`
	RefTables string `yaml:"ref_tables"`

	Workers    *int64 `yaml:"workers"`
	ReencodeAI *bool  `yaml:"reencode_ai"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
}

// cfg is loaded once by the root Before hook.
var cfg Config

func configPath() string {
	if p := os.Getenv(envConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ifrit", "config.yaml")
}

// applyRootConfig applies config file defaults to the global flags when the
// corresponding flag was not explicitly set.
func applyRootConfig(c *cli.Command, cfg Config) {
	if cfg.DataDir != "" && !c.IsSet("data-dir") {
		dataDir = cfg.DataDir
	}
	if cfg.RefTables != "" && !c.IsSet("ref-tables") {
		refTables = cfg.RefTables
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyReencodeConfig applies config file defaults to the batch flags.
func applyReencodeConfig(c *cli.Command, cfg Config) {
	if cfg.OutputDir != "" && !c.IsSet("out") {
		outputDir = cfg.OutputDir
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
	if cfg.ReencodeAI != nil && !c.IsSet("reencode-ai") {
		reencodeAI = *cfg.ReencodeAI
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	c, err := readConfig(path)
	if err != nil {
		return Config{}
	}
	return c
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
