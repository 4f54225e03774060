package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/propfix/pkg/infer"
	"github.com/gnana997/propfix/pkg/lint"
	"github.com/gnana997/propfix/pkg/scanner"
	"github.com/gnana997/propfix/pkg/transform"
	"github.com/gnana997/propfix/pkg/usage"
	"github.com/gnana997/propfix/pkg/watch"
)

const defaultConfigPath = ".propfix/config.yaml"

// Config holds the contents of .propfix/config.yaml after environment
// overrides.
type Config struct {
	Include  []string     `yaml:"include,omitempty"`
	Exclude  []string     `yaml:"exclude,omitempty"`
	Import   ImportConfig `yaml:"import"`
	Existing string       `yaml:"existing,omitempty"`

	// CrossFile is nil when unset; the consumer index is on by default.
	CrossFile *bool `yaml:"cross_file,omitempty"`

	Linter LinterConfig `yaml:"linter"`
	Watch  WatchConfig  `yaml:"watch"`
	Parser ParserConfig `yaml:"parser"`
	Usage  UsageConfig  `yaml:"usage"`
	MCP    MCPConfig    `yaml:"mcp"`
	Log    LogConfig    `yaml:"log"`

	Overrides infer.Overrides `yaml:"overrides,omitempty"`
}

type ImportConfig struct {
	Source string `yaml:"source,omitempty"`
	Ident  string `yaml:"ident,omitempty"`
}

type LinterConfig struct {
	// Command is split on whitespace; {file} marks the target path.
	Command    string        `yaml:"command,omitempty"`
	FixCommand string        `yaml:"fix_command,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

type ParserConfig struct {
	PoolSize int `yaml:"pool_size,omitempty"`
}

type UsageConfig struct {
	CacheSize int `yaml:"cache_size,omitempty"`
}

type MCPConfig struct {
	CallLog string `yaml:"call_log,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// defaultConfig returns the built-in settings.
func defaultConfig() *Config {
	scan := scanner.DefaultScanConfig()
	opts := transform.DefaultOptions()
	return &Config{
		Include:  scan.Include,
		Exclude:  scan.Exclude,
		Import:   ImportConfig{Source: opts.ImportSource, Ident: opts.ImportIdent},
		Existing: string(opts.Existing),
		Linter: LinterConfig{
			Command:    strings.Join(lint.DefaultCommand, " "),
			FixCommand: strings.Join(lint.DefaultFixCommand, " "),
			Timeout:    60 * time.Second,
		},
		Watch: WatchConfig{Debounce: watch.DefaultDebounce},
		Usage: UsageConfig{CacheSize: usage.DefaultIndexSize},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// loadConfig resolves the configuration in order: built-in defaults, the
// project file, .env and the process environment. The file path comes from
// the --config flag, then PROPFIX_CONFIG, then .propfix/config.yaml. Only
// the default path may be absent.
func loadConfig(flagPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path, explicit := flagPath, flagPath != ""
	if !explicit {
		if env := os.Getenv("PROPFIX_CONFIG"); env != "" {
			path, explicit = env, true
		} else {
			path = defaultConfigPath
		}
	}

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PROPFIX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PROPFIX_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("PROPFIX_LINTER"); v != "" {
		c.Linter.Command = v
	}
	if v := os.Getenv("PROPFIX_LINTER_FIX"); v != "" {
		c.Linter.FixCommand = v
	}
	if v := os.Getenv("PROPFIX_LINTER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PROPFIX_LINTER_TIMEOUT: %w", err)
		}
		c.Linter.Timeout = d
	}
	if v := os.Getenv("PROPFIX_EXISTING"); v != "" {
		c.Existing = v
	}
	if v := os.Getenv("PROPFIX_MCP_LOG"); v != "" {
		c.MCP.CallLog = v
	}
	return nil
}

// ScanConfig returns the include/exclude globs.
func (c *Config) ScanConfig() scanner.ScanConfig {
	return scanner.ScanConfig{Include: c.Include, Exclude: c.Exclude}
}

// TransformOptions validates the transformer settings.
func (c *Config) TransformOptions() (transform.Options, error) {
	policy, err := transform.ParsePolicy(c.Existing)
	if err != nil {
		return transform.Options{}, err
	}
	opts := transform.DefaultOptions()
	opts.Scan = c.ScanConfig()
	opts.ImportSource = c.Import.Source
	opts.ImportIdent = c.Import.Ident
	opts.Existing = policy
	opts.IndexSize = c.Usage.CacheSize
	if c.CrossFile != nil {
		opts.CrossFile = *c.CrossFile
	}
	return opts, nil
}

// Inferencer builds the type inferencer with the configured overrides.
func (c *Config) Inferencer() (*infer.Inferencer, error) {
	tables, err := infer.NewTables(infer.Builtins(), c.Overrides)
	if err != nil {
		return nil, fmt.Errorf("overrides: %w", err)
	}
	return infer.New(tables), nil
}
