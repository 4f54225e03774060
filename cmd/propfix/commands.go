package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gnana997/propfix/pkg/lint"
	"github.com/gnana997/propfix/pkg/mcp"
	"github.com/gnana997/propfix/pkg/transform"
	"github.com/gnana997/propfix/pkg/watch"
)

var errNoPath = errors.New("missing path argument")

func pathArg(rest []string) (string, error) {
	if len(rest) == 0 {
		return "", errNoPath
	}
	if len(rest) > 1 {
		return "", fmt.Errorf("expected one path, got %d", len(rest))
	}
	return rest[0], nil
}

func runTransform(_ context.Context, a *app, rest []string, stdout io.Writer) error {
	path, err := pathArg(rest)
	if err != nil {
		return err
	}
	summary, err := a.transformer.Run(path)
	if err != nil {
		return err
	}
	summary.Write(stdout)
	return nil
}

func runFixHooksDeps(ctx context.Context, a *app, rest []string, stdout io.Writer) error {
	return runDriver(ctx, a.hooks, rest, stdout)
}

func runFixUnusedImports(ctx context.Context, a *app, rest []string, stdout io.Writer) error {
	return runDriver(ctx, a.unused, rest, stdout)
}

func runDriver(ctx context.Context, d *lint.Driver, rest []string, stdout io.Writer) error {
	path, err := pathArg(rest)
	if err != nil {
		return err
	}
	summary, err := d.Run(ctx, path)
	if summary != nil {
		summary.Write(stdout)
	}
	return err
}

// runFixAll lets the linter apply its own fixes, then fixes dependency
// arrays and unused imports so that the PropTypes pass sees the final
// imports.
func runFixAll(ctx context.Context, a *app, rest []string, stdout io.Writer) error {
	path, err := pathArg(rest)
	if err != nil {
		return err
	}
	drivers := []*lint.Driver{a.hooks, a.unused}
	if a.autofix != nil {
		drivers = append([]*lint.Driver{a.autofix}, drivers...)
	}
	for _, d := range drivers {
		summary, err := d.Run(ctx, path)
		if summary != nil {
			summary.Write(stdout)
		}
		if err != nil {
			return err
		}
	}
	summary, err := a.transformer.Run(path)
	if err != nil {
		return err
	}
	summary.Write(stdout)
	return nil
}

// runWatch transforms the tree once, which also fills the consumer index,
// then follows changes until ctx is cancelled.
func runWatch(ctx context.Context, a *app, rest []string, stdout io.Writer) error {
	path, err := pathArg(rest)
	if err != nil {
		return err
	}
	summary, err := a.transformer.Run(path)
	if err != nil {
		return err
	}
	summary.Write(stdout)

	w, err := watch.New(a.transformer, watch.Options{
		Scan:     a.cfg.ScanConfig(),
		Debounce: a.cfg.Watch.Debounce,
		OnResult: func(fr transform.FileResult) {
			switch {
			case fr.Outcome == transform.OutcomeFailed:
				fmt.Fprintf(stdout, "%s: failed: %v\n", fr.Path, fr.Err)
			case fr.Changed:
				fmt.Fprintf(stdout, "%s: updated\n", fr.Path)
			}
		},
	}, a.logger)
	if err != nil {
		return err
	}
	return w.Run(ctx, path)
}

func runServe(_ context.Context, a *app, _ []string, _ io.Writer) error {
	calls, err := mcp.OpenCallLog(a.cfg.MCP.CallLog)
	if err != nil {
		return err
	}
	defer calls.Close()

	srv := mcp.NewServer(a.transformer, a.inferencer, mcp.Fixers{Hooks: a.hooks, Unused: a.unused}, calls, a.logger)
	return srv.ServeStdio()
}
