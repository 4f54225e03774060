package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

const version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// globalOptions are the flags accepted by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	existing   string
}

// parseArgs splits args into flags and positional arguments. Flags take
// their value either inline (--log-level=debug) or from the next argument.
func parseArgs(args []string) (globalOptions, []string, error) {
	var opts globalOptions
	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			rest = append(rest, arg)
			continue
		}

		name, value, inline := strings.Cut(arg[2:], "=")
		var target *string
		switch name {
		case "config":
			target = &opts.configPath
		case "log-level":
			target = &opts.logLevel
		case "log-format":
			target = &opts.logFormat
		case "existing":
			target = &opts.existing
		default:
			return opts, nil, fmt.Errorf("unknown flag: --%s", name)
		}
		if !inline {
			if i+1 >= len(args) {
				return opts, nil, fmt.Errorf("flag --%s needs a value", name)
			}
			i++
			value = args[i]
		}
		*target = value
	}
	return opts, rest, nil
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	command := args[0]
	switch command {
	case "version", "--version":
		fmt.Fprintf(stdout, "propfix %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	}

	opts, rest, err := parseArgs(args[1:])
	if err != nil {
		fmt.Fprintln(stderr, err)
		printUsage(stderr)
		return 1
	}

	var cmd func(ctx context.Context, a *app, rest []string, stdout io.Writer) error
	switch command {
	case "transform":
		cmd = runTransform
	case "fixHooksDeps", "fix-hooks-deps":
		cmd = runFixHooksDeps
	case "fixUnusedImports", "fix-unused-imports":
		cmd = runFixUnusedImports
	case "fixAll", "fix-all":
		cmd = runFixAll
	case "watch":
		cmd = runWatch
	case "serve":
		cmd = runServe
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", command)
		printUsage(stderr)
		return 1
	}

	a, err := setup(opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "propfix: %v\n", err)
		return 1
	}
	defer a.close()

	if err := cmd(ctx, a, rest, stdout); err != nil {
		fmt.Fprintf(stderr, "propfix %s: %v\n", command, err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: propfix <command> [flags] [path]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  transform <path>          Add or update PropTypes declarations")
	fmt.Fprintln(w, "  fixHooksDeps <path>       Add missing hook dependencies reported by ESLint")
	fmt.Fprintln(w, "  fixUnusedImports <path>   Remove imports ESLint reports as unused")
	fmt.Fprintln(w, "  fixAll <path>             Run eslint --fix, the hooks and imports fixers, then transform")
	fmt.Fprintln(w, "  watch <path>              Transform files as they change")
	fmt.Fprintln(w, "  serve                     Start MCP server on stdio")
	fmt.Fprintln(w, "  version                   Print version")
	fmt.Fprintln(w, "  help                      Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  --config <file>           Config file (default .propfix/config.yaml)")
	fmt.Fprintln(w, "  --log-level <level>       debug, info, warn or error")
	fmt.Fprintln(w, "  --log-format <format>     text or json")
	fmt.Fprintln(w, "  --existing <policy>       overwrite or merge existing propTypes")
}
