package main

import (
	"io"
	"log/slog"

	"github.com/gnana997/propfix/pkg/hooks"
	"github.com/gnana997/propfix/pkg/infer"
	"github.com/gnana997/propfix/pkg/lint"
	"github.com/gnana997/propfix/pkg/parser"
	"github.com/gnana997/propfix/pkg/source"
	"github.com/gnana997/propfix/pkg/transform"
	"github.com/gnana997/propfix/pkg/unused"
	"github.com/gnana997/propfix/pkg/util"
)

// app holds the components shared by every command.
type app struct {
	cfg    *Config
	logger *slog.Logger

	pm          *parser.ParserManager
	loader      *source.Loader
	inferencer  *infer.Inferencer
	transformer *transform.Transformer
	autofix     *lint.Driver // nil when the linter cannot fix files itself
	hooks       *lint.Driver
	unused      *lint.Driver
}

// Replaceable for testing.
var newLinter = func(cfg *Config, logger *slog.Logger) lint.Linter {
	e := lint.NewESLint(lint.ParseCommand(cfg.Linter.Command), cfg.Linter.Timeout, logger)
	e.FixCommand = lint.ParseCommand(cfg.Linter.FixCommand)
	return e
}

// setup loads the configuration, applies flag overrides and wires the
// pipeline. Logs go to logOut.
func setup(opts globalOptions, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if opts.existing != "" {
		cfg.Existing = opts.existing
	}

	logger := util.NewLogger(util.LoggerConfig{
		Level:  util.ParseLogLevel(cfg.Log.Level),
		Format: util.ParseLogFormat(cfg.Log.Format),
		Output: logOut,
	})
	util.SetDefault(logger)

	topts, err := cfg.TransformOptions()
	if err != nil {
		return nil, err
	}
	in, err := cfg.Inferencer()
	if err != nil {
		return nil, err
	}

	pm := parser.NewParserManager(logger, cfg.Parser.PoolSize)
	loader := source.NewLoader(logger)
	tr, err := transform.New(pm, loader, in, topts, logger)
	if err != nil {
		pm.Close()
		return nil, err
	}

	linter := newLinter(cfg, logger)
	scan := cfg.ScanConfig()
	var autofix *lint.Driver
	if af, ok := linter.(lint.AutoFixer); ok {
		autofix = lint.NewAutoFixDriver(af, loader, scan, logger)
	}
	return &app{
		cfg:         cfg,
		logger:      logger,
		pm:          pm,
		loader:      loader,
		inferencer:  in,
		transformer: tr,
		autofix:     autofix,
		hooks:       hooks.NewFixer(linter, loader, scan, logger),
		unused:      unused.NewFixer(linter, loader, pm, scan, logger),
	}, nil
}

func (a *app) close() {
	if err := a.pm.Close(); err != nil {
		a.logger.Warn("failed to close parsers", "error", err)
	}
}
