// Command wikimark converts wikitext files to HTML fragments.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/rgonek/wikimark/converter"
	"github.com/rgonek/wikimark/internal/config"
	"github.com/rgonek/wikimark/sanitize"
	"github.com/rgonek/wikimark/templatelib"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Environment carries the process streams so run can be tested.
type Environment struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func main() {
	env := &Environment{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args, env)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	flags, inputs, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		printUsage(env.Stderr)
		return exitCodeFor(err)
	}
	if flags.help {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	if flags.verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(env.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	conv, outDir, err := buildConverter(flags)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}

	files, err := planOutputs(inputs, outDir)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		if len(inputs) == 0 {
			printUsage(env.Stderr)
		}
		return exitCodeFor(err)
	}

	workers := resolvePoolSize(flags.workers)
	if flags.verbose {
		fmt.Fprintf(env.Stderr, "wikimark %s: converting %d file(s) with %d worker(s)\n", Version, len(files), workers)
	}

	results := convertBatch(ctx, conv, env.Stdin, files, workers)
	return exitCodeFor(printResults(results, flags, env))
}

// buildConverter resolves the configuration layers and wires the
// sanitizer, template library and tracer collaborators.
func buildConverter(flags *cliFlags) (*converter.Converter, string, error) {
	var file *config.File
	if flags.config != "" {
		loaded, err := config.Load(flags.config)
		if err != nil {
			return nil, "", err
		}
		file = loaded
	}

	cfg, err := resolveConfig(flags, file)
	if err != nil {
		return nil, "", err
	}

	if file != nil && len(file.Templates.Library) > 0 {
		lib, err := templatelib.New(file.Templates.Library)
		if err != nil {
			return nil, "", fmt.Errorf("loading template library: %w", err)
		}
		cfg.TemplateResolver = lib
	}
	if cfg.Sanitize {
		cfg.Sanitizer = sanitize.New(sanitize.Options{InlineStyles: !cfg.Highlight.Classes})
	}
	if flags.verbose {
		tr := gologadapter.New()
		tr.SetTraceLevel(tracing.LevelDebug)
		cfg.Tracer = tr
	}

	conv, err := converter.New(cfg)
	if err != nil {
		return nil, "", err
	}

	outDir := flags.outDir
	if outDir == "" && file != nil {
		outDir = file.Output.Dir
	}
	return conv, outDir, nil
}
