package artifacts

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
)

// datasetsLineRe extracts the dataset-id list from a run file's first line,
// e.g. "Datasets: 30, 31, 32".
var datasetsLineRe = regexp.MustCompile(`(?i)datasets:\s*([\d\s,]+)`)

// RunFile is a parsed prediction run: the datasets it covers and the flat
// list of user ids predicted BOT.
type RunFile struct {
	DatasetIDs      []int
	PredictedBotIDs []string
}

// WriteRunFile emits a run file: a datasets declaration, informational
// metadata lines, a blank separator, then one predicted-bot id per line.
func WriteRunFile(path, detector, model string, datasetIDs []int, predictedBotIDs []string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	idStrings := make([]string, 0, len(datasetIDs))
	for _, id := range datasetIDs {
		idStrings = append(idStrings, strconv.Itoa(id))
	}

	lines := []string{
		"Datasets: " + strings.Join(idStrings, ", "),
		"Detector: " + detector,
		"Model: " + model,
		"Batch size: 1",
		"",
	}
	lines = append(lines, predictedBotIDs...)

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec // run files are shared artifacts
		return fmt.Errorf("writing run file %s: %w", path, err)
	}

	return nil
}

// ParseRunFile reads a run file: the first line must declare datasets; known
// metadata lines are informational and skipped; every other non-empty line is
// a predicted-bot user id.
func ParseRunFile(path string) (*RunFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening run file: %w", err)
	}
	defer f.Close()

	var lines []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading run file %s: %w", path, err)
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %s", errors.ErrEmptyRunFile, path)
	}

	datasetIDs := parseDatasetsLine(lines[0])
	if len(datasetIDs) == 0 {
		return nil, fmt.Errorf("%w: first line %q", errors.ErrNoDatasetsDeclared, lines[0])
	}

	run := &RunFile{DatasetIDs: datasetIDs}

	for _, line := range lines[1:] {
		if line == "" || isMetadataLine(line) {
			continue
		}

		run.PredictedBotIDs = append(run.PredictedBotIDs, line)
	}

	return run, nil
}

func parseDatasetsLine(line string) []int {
	match := datasetsLineRe.FindStringSubmatch(line)
	if match == nil {
		return nil
	}

	var ids []int

	for _, chunk := range strings.Split(match[1], ",") {
		id, err := strconv.Atoi(strings.TrimSpace(chunk))
		if err != nil {
			continue
		}

		ids = append(ids, id)
	}

	return ids
}

// isMetadataLine matches the optional informational header lines a pipeline
// writes below the datasets declaration.
func isMetadataLine(line string) bool {
	lower := strings.ToLower(line)

	return strings.HasPrefix(lower, "detector:") ||
		strings.HasPrefix(lower, "model:") ||
		strings.HasPrefix(lower, "batch size:")
}
