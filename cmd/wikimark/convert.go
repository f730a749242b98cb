package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rgonek/wikimark/converter"
)

// File permission constants.
const (
	dirPermissions  = 0o750
	filePermissions = 0o644
)

const stdinPath = "-"

// Sentinel errors for batch operations.
var (
	ErrNoInput     = errors.New("no input specified")
	ErrReadInput   = errors.New("failed to read wikitext input")
	ErrWriteOutput = errors.New("failed to write HTML output")
)

// Converter is the conversion surface the batch needs.
type Converter interface {
	ConvertWithContext(ctx context.Context, source string, opts converter.ConvertOptions) (converter.Result, error)
}

var _ Converter = (*converter.Converter)(nil)

// FileToConvert pairs an input with its destination. An empty OutputPath
// sends the HTML to stdout.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	HTML       string
	Warnings   []converter.Warning
	Err        error
	Duration   time.Duration
}

// planOutputs maps inputs to output paths. A single input without an
// output directory goes to stdout; otherwise each input gets a sibling
// (or out-dir) file with the .html extension.
func planOutputs(inputs []string, outDir string) ([]FileToConvert, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}

	files := make([]FileToConvert, 0, len(inputs))
	for _, input := range inputs {
		if input == stdinPath && len(inputs) > 1 {
			return nil, fmt.Errorf("%w: stdin cannot be combined with other inputs", ErrUsage)
		}

		f := FileToConvert{InputPath: input}
		switch {
		case len(inputs) == 1 && outDir == "":
		case input == stdinPath:
			f.OutputPath = filepath.Join(outDir, "stdin.html")
		default:
			dir := outDir
			if dir == "" {
				dir = filepath.Dir(input)
			}
			base := filepath.Base(input)
			f.OutputPath = filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".html")
		}
		files = append(files, f)
	}
	return files, nil
}

// convertBatch processes files concurrently with up to workers goroutines
// sharing one converter.
func convertBatch(ctx context.Context, conv Converter, stdin io.Reader, files []FileToConvert, workers int) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := workers
	if concurrency > len(files) {
		concurrency = len(files)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, conv, stdin, files[idx])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile converts a single input and writes its output file.
func convertFile(ctx context.Context, conv Converter, stdin io.Reader, f FileToConvert) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}

	var content []byte
	var err error
	if f.InputPath == stdinPath {
		content, err = io.ReadAll(stdin)
	} else {
		content, err = os.ReadFile(f.InputPath) // #nosec G304 -- user-provided path
	}
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadInput, err)
		result.Duration = time.Since(start)
		return result
	}

	converted, err := conv.ConvertWithContext(ctx, string(content), converter.ConvertOptions{SourcePath: f.InputPath})
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Warnings = converted.Warnings

	if f.OutputPath == "" {
		result.HTML = converted.HTML
		result.Duration = time.Since(start)
		return result
	}

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		result.Err = fmt.Errorf("%w: creating output directory: %v", ErrWriteOutput, err)
		result.Duration = time.Since(start)
		return result
	}
	// #nosec G306 -- HTML files are meant to be readable
	if err := os.WriteFile(f.OutputPath, []byte(converted.HTML+"\n"), filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults writes HTML destined for stdout, progress lines and
// failures, and returns the first error encountered.
func printResults(results []ConversionResult, flags *cliFlags, env *Environment) error {
	var firstErr error
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}

		if flags.warnings {
			for _, w := range r.Warnings {
				fmt.Fprintf(env.Stderr, "%s: %s (%s): %s\n", r.InputPath, w.Type, w.Construct, w.Message)
			}
		}

		if r.OutputPath == "" {
			fmt.Fprintln(env.Stdout, r.HTML)
			continue
		}
		if flags.quiet {
			continue
		}
		if flags.verbose {
			fmt.Fprintf(env.Stderr, "%s -> %s (%v, %d warnings)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond), len(r.Warnings))
		} else {
			fmt.Fprintf(env.Stderr, "Created %s\n", r.OutputPath)
		}
	}

	if summary := countResults(results); !flags.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stderr, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}
	return firstErr
}

// resolvePoolSize determines the worker count.
// Priority: explicit flag > GOMAXPROCS-based calculation.
func resolvePoolSize(flagWorkers int) int {
	if flagWorkers > 0 {
		return flagWorkers
	}

	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	if n > 16 {
		return 16
	}
	return n
}
