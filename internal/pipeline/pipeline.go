// Package pipeline orchestrates the fine-tuning lifecycle: preparing split
// artifacts, running pair-holdout cross-validation, training the final model
// and evaluating candidate models against the corpus.
package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/llm"
	"github.com/lueurxax/bot-detection-pipeline/internal/evaluate"
	"github.com/lueurxax/bot-detection-pipeline/internal/metrics"
	"github.com/lueurxax/bot-detection-pipeline/internal/platform/config"
)

// Pipeline wires the dataset directory, artifact layout and remote tuning
// service together. Tuner and evaluator may be nil for modes that never talk
// to the remote API (prepare, dry runs).
type Pipeline struct {
	cfg       *config.Config
	tuner     llm.TuningService
	evaluator *evaluate.Evaluator
	logger    *zerolog.Logger
}

func New(cfg *config.Config, tuner llm.TuningService, evaluator *evaluate.Evaluator, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, tuner: tuner, evaluator: evaluator, logger: logger}
}

// timestampSlug is a filesystem-safe UTC timestamp for run directory and
// file names.
func timestampSlug(now time.Time) string {
	return now.UTC().Format("2006-01-02T15-04-05Z")
}

// runSlug builds a unique run identifier. The uuid suffix disambiguates runs
// submitted within the same second.
func runSlug(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, timestampSlug(now), uuid.NewString()[:8])
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// FormatMetricsLine renders the one-line human summary of a metrics block.
func FormatMetricsLine(prefix string, m metrics.Metrics) string {
	return fmt.Sprintf(
		"%s: total=%d bots=%d humans=%d | TP=%d TN=%d FP=%d FN=%d | acc=%.2f%% score=%d/%d (%.1f%%)",
		prefix, m.Total, m.Bots, m.Humans, m.TP, m.TN, m.FP, m.FN, m.Accuracy, m.Score, m.MaxScore, m.PctMax,
	)
}

func joinInts(ids []int, sep string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}

	return strings.Join(parts, sep)
}
