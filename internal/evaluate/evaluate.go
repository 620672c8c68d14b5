// Package evaluate drives the remote classifier over a batch of evaluation
// records and aggregates the outcomes into scored metrics.
package evaluate

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/llm"
	"github.com/lueurxax/bot-detection-pipeline/internal/metrics"
	"github.com/lueurxax/bot-detection-pipeline/internal/platform/observability"
)

// maxInvalidSamples caps how many malformed raw outputs are retained verbatim
// for manual inspection.
const maxInvalidSamples = 10

// InvalidSample is one raw classifier output that did not parse to a label.
type InvalidSample struct {
	UserID    string `json:"user_id"`
	RawOutput string `json:"raw_output"`
}

// Report is the aggregate outcome of evaluating a model over a record batch.
type Report struct {
	EvaluatedAt        string                     `json:"evaluated_at"`
	Model              string                     `json:"model"`
	TotalExamples      int                        `json:"total_examples"`
	InvalidOutputCount int                        `json:"invalid_output_count"`
	InvalidSamples     []InvalidSample            `json:"invalid_examples"`
	Metrics            metrics.Metrics            `json:"metrics"`
	PerDatasetMetrics  map[string]metrics.Metrics `json:"per_dataset_metrics"`
	PredictedBotIDs    []string                   `json:"predicted_bot_ids"`
}

// Evaluator classifies records one at a time and scores the results.
type Evaluator struct {
	classifier llm.Classifier
	logger     *zerolog.Logger
}

func New(classifier llm.Classifier, logger *zerolog.Logger) *Evaluator {
	return &Evaluator{classifier: classifier, logger: logger}
}

// Evaluate classifies up to maxSamples records (0 means all; deterministic
// prefix truncation, not sampling) and scores them combined and per source
// dataset.
//
// Output that parses to neither label is counted, sampled for inspection, and
// scored as HUMAN: ambiguous model output is a non-detection, not an error
// that aborts the run. A failed remote call does abort.
func (e *Evaluator) Evaluate(ctx context.Context, model string, records []domain.EvalRecord, temperature float32, maxSamples int) (*Report, error) {
	if maxSamples > 0 && len(records) > maxSamples {
		records = records[:maxSamples]
	}

	report := &Report{
		EvaluatedAt:       time.Now().UTC().Format(time.RFC3339),
		Model:             model,
		TotalExamples:     len(records),
		PerDatasetMetrics: make(map[string]metrics.Metrics),
		PredictedBotIDs:   []string{},
	}

	points := make([]metrics.ClassificationPoint, 0, len(records))
	perDataset := make(map[int][]metrics.ClassificationPoint)

	for _, record := range records {
		raw, err := e.classifier.Classify(ctx, model, record.Messages, temperature)
		if err != nil {
			return nil, fmt.Errorf("classifying user %s: %w", record.UserID, err)
		}

		predicted, ok := llm.NormalizeLabel(raw)
		if !ok {
			// Default to HUMAN: preserves the score formula's asymmetry by
			// treating unparseable output as a non-detection.
			predicted = domain.LabelHuman
			report.InvalidOutputCount++
			observability.InvalidOutputs.Inc()

			if len(report.InvalidSamples) < maxInvalidSamples {
				report.InvalidSamples = append(report.InvalidSamples, InvalidSample{
					UserID:    record.UserID,
					RawOutput: raw,
				})
			}

			e.logger.Warn().Str("user_id", record.UserID).Str("raw_output", raw).Msg("classifier output did not parse to a label")
		}

		if predicted == domain.LabelBot {
			report.PredictedBotIDs = append(report.PredictedBotIDs, record.UserID)
		}

		point := metrics.ClassificationPoint{
			UserID:    record.UserID,
			DatasetID: record.DatasetID,
			Truth:     record.Label,
			Predicted: predicted,
		}
		points = append(points, point)
		perDataset[record.DatasetID] = append(perDataset[record.DatasetID], point)
	}

	report.Metrics = metrics.Compute(points)

	datasetIDs := make([]int, 0, len(perDataset))
	for datasetID := range perDataset {
		datasetIDs = append(datasetIDs, datasetID)
	}

	sort.Ints(datasetIDs)

	for _, datasetID := range datasetIDs {
		report.PerDatasetMetrics[strconv.Itoa(datasetID)] = metrics.Compute(perDataset[datasetID])
	}

	return report, nil
}
