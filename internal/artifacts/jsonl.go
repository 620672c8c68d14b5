// Package artifacts reads and writes the pipeline's on-disk products: JSONL
// transcript files, run files, JSON reports, and the model registry.
//
// All writes are whole-file rewrites. A crash mid-write can leave a truncated
// file; callers re-run the producing step, which regenerates it
// deterministically.
package artifacts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
)

const dirPerm = 0o755

// WriteSFT writes one three-turn fine-tuning transcript per example.
func WriteSFT(path string, examples []domain.UserExample) error {
	rows := make([]domain.SFTRecord, 0, len(examples))
	for _, example := range examples {
		rows = append(rows, example.ToSFTRecord())
	}

	return writeJSONL(path, rows)
}

// WriteEval writes one evaluation transcript (with metadata) per example.
func WriteEval(path string, examples []domain.UserExample) error {
	rows := make([]domain.EvalRecord, 0, len(examples))
	for _, example := range examples {
		rows = append(rows, example.ToEvalRecord())
	}

	return writeJSONL(path, rows)
}

// WriteMeta writes one metadata-only row per example.
func WriteMeta(path string, examples []domain.UserExample) error {
	rows := make([]domain.ExampleMeta, 0, len(examples))
	for _, example := range examples {
		rows = append(rows, example.ToMeta())
	}

	return writeJSONL(path, rows)
}

// ReadEvalRecords loads evaluation transcripts from a JSONL file, skipping
// blank lines.
func ReadEvalRecords(path string) ([]domain.EvalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening eval file: %w", err)
	}
	defer f.Close()

	var records []domain.EvalRecord

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record domain.EvalRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("parsing eval record: %w", err)
		}

		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading eval file %s: %w", path, err)
	}

	return records, nil
}

func writeJSONL[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			f.Close()

			return fmt.Errorf("encoding row in %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()

		return fmt.Errorf("flushing %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	return nil
}
