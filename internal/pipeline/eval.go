package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lueurxax/bot-detection-pipeline/internal/artifacts"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
	"github.com/lueurxax/bot-detection-pipeline/internal/dataset"
	"github.com/lueurxax/bot-detection-pipeline/internal/evaluate"
)

// EvalOptions control one model evaluation.
type EvalOptions struct {
	Model        string
	DatasetIDs   []int
	EvalFile     string
	Temperature  float32
	MaxSamples   int
	OutputPath   string
	WriteRunFile bool
	RunTag       string
	DetectorName string
}

// EvalModel evaluates a model over prepared eval records (or a fresh corpus
// load), saves the report and optionally emits a run file with the predicted
// bot ids.
func (p *Pipeline) EvalModel(ctx context.Context, opts EvalOptions) (*evaluate.Report, error) {
	records, err := p.evalRecords(opts)
	if err != nil {
		return nil, err
	}

	report, err := p.evaluator.Evaluate(ctx, opts.Model, records, opts.Temperature, opts.MaxSamples)
	if err != nil {
		return nil, err
	}

	p.logger.Info().Msg(FormatMetricsLine("combined", report.Metrics))
	p.logger.Info().Int("invalid_outputs", report.InvalidOutputCount).Msg("evaluation finished")

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(p.cfg.ArtifactsDir, "last_eval.json")
	}

	if err := artifacts.SaveJSON(outputPath, report); err != nil {
		return nil, err
	}

	p.logger.Info().Str("path", outputPath).Msg("saved eval report")

	if opts.WriteRunFile {
		runPath := filepath.Join(
			p.cfg.RunsDir,
			fmt.Sprintf("%s-%s-%s.txt", opts.RunTag, joinInts(opts.DatasetIDs, "_"), timestampSlug(time.Now())),
		)

		if err := artifacts.WriteRunFile(runPath, opts.DetectorName, modelForRunFile(opts.Model), opts.DatasetIDs, report.PredictedBotIDs); err != nil {
			return nil, err
		}

		p.logger.Info().Str("path", runPath).Msg("saved run file")
	}

	return report, nil
}

// evalRecords loads evaluation records from the configured eval file when
// given, otherwise from a fresh corpus load.
func (p *Pipeline) evalRecords(opts EvalOptions) ([]domain.EvalRecord, error) {
	if opts.EvalFile != "" {
		return artifacts.ReadEvalRecords(opts.EvalFile)
	}

	examples, err := dataset.LoadExamples(p.cfg.DatasetsDir, opts.DatasetIDs)
	if err != nil {
		return nil, err
	}

	records := make([]domain.EvalRecord, 0, len(examples))
	for _, example := range examples {
		records = append(records, example.ToEvalRecord())
	}

	return records, nil
}

// ResolveModel returns the explicit model id, falling back to the published
// final model file.
func ResolveModel(model, finalModelPath string) (string, error) {
	if model != "" {
		return model, nil
	}

	data, err := os.ReadFile(finalModelPath)
	if err != nil {
		return "", fmt.Errorf("%w: model is required (or create %s)", errors.ErrMissingResource, finalModelPath)
	}

	resolved := strings.TrimSpace(string(data))
	if resolved == "" {
		return "", fmt.Errorf("%w: %s is empty", errors.ErrMissingResource, finalModelPath)
	}

	return resolved, nil
}

// modelForRunFile namespaces the model id for run-file consumers.
func modelForRunFile(model string) string {
	if strings.HasPrefix(model, "openai/") {
		return model
	}

	return "openai/" + model
}
