package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage marks command-line errors.
var ErrUsage = errors.New("invalid usage")

type cliFlags struct {
	config           string
	preset           string
	presetSet        bool
	linkBase         string
	imageBase        string
	noSanitize       bool
	highlightStyle   string
	highlightClasses bool
	outDir           string
	workers          int
	verbose          bool
	quiet            bool
	warnings         bool
	help             bool
}

func newFlagSet(f *cliFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("wikimark", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVarP(&f.config, "config", "c", "", "YAML config file")
	fs.StringVarP(&f.preset, "preset", "p", presetBalanced, "preset: balanced|raw|readable|lossy")
	fs.StringVar(&f.linkBase, "link-base", "", "URL prefix for internal links")
	fs.StringVar(&f.imageBase, "image-base", "", "URL prefix for images")
	fs.BoolVar(&f.noSanitize, "no-sanitize", false, "skip HTML sanitization")
	fs.StringVar(&f.highlightStyle, "highlight-style", "", "chroma style for <syntaxhighlight>")
	fs.BoolVar(&f.highlightClasses, "highlight-classes", false, "emit CSS classes instead of inline styles")
	fs.StringVarP(&f.outDir, "out-dir", "o", "", "directory for generated .html files")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel conversions (0 = auto)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed progress and traces")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only print errors")
	fs.BoolVar(&f.warnings, "warnings", false, "print conversion warnings to stderr")
	fs.BoolVarP(&f.help, "help", "h", false, "show this help")

	return fs
}

// parseFlags parses args (including the program name) and returns the
// flags and the positional input paths.
func parseFlags(args []string) (*cliFlags, []string, error) {
	f := &cliFlags{}
	fs := newFlagSet(f)

	if len(args) > 0 {
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	f.presetSet = fs.Changed("preset")
	if f.quiet && f.verbose {
		return nil, nil, fmt.Errorf("%w: --quiet and --verbose are mutually exclusive", ErrUsage)
	}
	if f.workers < 0 {
		return nil, nil, fmt.Errorf("%w: --workers must not be negative", ErrUsage)
	}

	return f, fs.Args(), nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: wikimark [options] <file.wiki>... (use - for stdin)\n\nOptions:\n")
	fmt.Fprint(w, newFlagSet(&cliFlags{}).FlagUsages())
}
