// Command checkrun scores a prediction run file against dataset ground truth
// and prints a human-readable accuracy report.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/bot-detection-pipeline/internal/artifacts"
	"github.com/lueurxax/bot-detection-pipeline/internal/runcheck"
)

func main() {
	datasetsDir := flag.String("datasets-dir", "./datasets", "Directory with dataset and bot label files")
	resultsDir := flag.String("results-dir", "./results", "Directory to persist reports under")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <run-file>\n", os.Args[0])
		os.Exit(1)
	}

	runPath := flag.Arg(0)

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	run, err := artifacts.ParseRunFile(runPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse run file: %v\n", err)
		os.Exit(1)
	}

	result, err := runcheck.Check(*datasetsDir, run, &logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to check run: %v\n", err)
		os.Exit(1)
	}

	runName := filepath.Base(runPath)
	report := result.Format(runName)

	fmt.Print(report)

	if err := persist(*resultsDir, runName, report, result); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist report: %v\n", err)
		os.Exit(1)
	}
}

// persist writes the text and JSON reports under a directory named after the
// run file.
func persist(resultsDir, runName, report string, result *runcheck.Result) error {
	dir := filepath.Join(resultsDir, strings.TrimSuffix(runName, filepath.Ext(runName)))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "report.txt"), []byte(report), 0o644); err != nil { //nolint:gosec // reports are shared artifacts
		return fmt.Errorf("writing text report: %w", err)
	}

	if err := artifacts.SaveJSON(filepath.Join(dir, "report.json"), result); err != nil {
		return err
	}

	fmt.Printf("\nSaved report: %s\n", dir)

	return nil
}
