package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lueurxax/bot-detection-pipeline/internal/artifacts"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/llm"
	"github.com/lueurxax/bot-detection-pipeline/internal/evaluate"
	"github.com/lueurxax/bot-detection-pipeline/internal/split"
)

// CVOptions control one cross-validation run.
type CVOptions struct {
	BaseModel       string
	Hyperparameters llm.Hyperparameters
	Temperature     float32
	PollInterval    time.Duration
	MaxWait         time.Duration
	MaxSamples      int
	SkipBaseline    bool
	DryRun          bool
	NoWait          bool
}

// FoldReport is the persisted outcome of one fold of a CV run.
type FoldReport struct {
	Fold              string           `json:"fold"`
	TrainDatasetIDs   []int            `json:"train_dataset_ids"`
	TestDatasetIDs    []int            `json:"test_dataset_ids"`
	BaseModel         string           `json:"base_model"`
	TrainingFileID    string           `json:"training_file_id"`
	ValidationFileID  string           `json:"validation_file_id"`
	JobID             string           `json:"job_id"`
	Status            string           `json:"status"`
	TunedModel        string           `json:"tuned_model,omitempty"`
	TunedEval         *evaluate.Report `json:"tuned_eval,omitempty"`
	BaselineEval      *evaluate.Report `json:"baseline_eval,omitempty"`
	NonRegressionPass *bool            `json:"non_regression_pass,omitempty"`
}

// SelectedConfiguration names the model and hyperparameters a CV run vouches
// for.
type SelectedConfiguration struct {
	BaseModel       string              `json:"base_model"`
	Hyperparameters llm.Hyperparameters `json:"hyperparameters"`
}

// Selection aggregates fold outcomes into the run's verdict.
type Selection struct {
	MeanTunedScore        float64               `json:"mean_tuned_score"`
	MeanBaselineScore     *float64              `json:"mean_baseline_score"`
	AllNonRegressionPass  bool                  `json:"all_non_regression_pass"`
	SelectedConfiguration SelectedConfiguration `json:"selected_configuration"`
}

// CVSummary is the persisted record of one CV run.
type CVSummary struct {
	RunID       string       `json:"run_id"`
	CreatedAt   string       `json:"created_at"`
	BaseModel   string       `json:"base_model"`
	NoWait      bool         `json:"no_wait"`
	FoldReports []FoldReport `json:"fold_reports"`
	Selection   *Selection   `json:"selection,omitempty"`
}

// RunCV fine-tunes one model per pair fold on the prepared artifacts,
// evaluates each tuned model on its held-out test datasets (optionally
// against the untuned baseline) and records the whole run in the registry.
//
// With NoWait, jobs are submitted and the run stops there. With DryRun,
// nothing is submitted; the prepared summary is printed for inspection.
func (p *Pipeline) RunCV(ctx context.Context, opts CVOptions) (*CVSummary, error) {
	preparedDir := p.cfg.PreparedDir()

	if _, err := os.Stat(preparedDir); err != nil {
		return nil, fmt.Errorf("%w: prepared dir %s (run prepare first)", errors.ErrMissingResource, preparedDir)
	}

	if opts.DryRun {
		return nil, p.printPreparedSummary(preparedDir)
	}

	now := time.Now()
	slug := runSlug("cv", now)
	runDir := filepath.Join(p.cfg.CVRunsDir(), slug)

	p.logger.Info().Str("run_id", slug).Str("base_model", opts.BaseModel).Msg("starting cross-validation run")

	var foldReports []FoldReport

	for _, fold := range split.PairFolds() {
		report, err := p.runFold(ctx, fold, preparedDir, runDir, opts)
		if report != nil {
			foldReports = append(foldReports, *report)
		}

		if err != nil {
			// Persist what we have before surfacing the failure.
			p.saveCVSummary(runDir, slug, opts, foldReports)

			return nil, err
		}
	}

	summary := &CVSummary{
		RunID:       slug,
		CreatedAt:   nowISO(),
		BaseModel:   opts.BaseModel,
		NoWait:      opts.NoWait,
		FoldReports: foldReports,
		Selection:   buildSelection(foldReports, opts),
	}

	if err := artifacts.SaveJSON(filepath.Join(runDir, "summary.json"), summary); err != nil {
		return nil, err
	}

	if err := p.registerCVRun(summary, runDir); err != nil {
		return nil, err
	}

	p.logger.Info().Str("summary", filepath.Join(runDir, "summary.json")).Msg("cross-validation run recorded")

	return summary, nil
}

// runFold uploads one fold's artifacts, drives its fine-tuning job to a
// terminal state and evaluates the tuned model on the fold's held-out test
// records. The returned report is persisted even when the fold fails.
func (p *Pipeline) runFold(ctx context.Context, fold split.PairFold, preparedDir, runDir string, opts CVOptions) (*FoldReport, error) {
	foldDir := filepath.Join(preparedDir, fold.Name)
	trainPath := filepath.Join(foldDir, "train.jsonl")
	valPath := filepath.Join(foldDir, "val.jsonl")
	testEvalPath := filepath.Join(foldDir, "test.eval.jsonl")

	for _, required := range []string{trainPath, valPath, testEvalPath} {
		if _, err := os.Stat(required); err != nil {
			return nil, fmt.Errorf("%w: required file %s", errors.ErrMissingResource, required)
		}
	}

	p.logger.Info().Str("fold", fold.Name).Msg("submitting fine-tuning job")

	trainingFileID, err := p.tuner.UploadFile(ctx, trainPath)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", trainPath, err)
	}

	validationFileID, err := p.tuner.UploadFile(ctx, valPath)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", valPath, err)
	}

	job, err := p.tuner.CreateJob(ctx, opts.BaseModel, trainingFileID, validationFileID, opts.Hyperparameters)
	if err != nil {
		return nil, fmt.Errorf("creating job for fold %s: %w", fold.Name, err)
	}

	report := &FoldReport{
		Fold:             fold.Name,
		TrainDatasetIDs:  fold.TrainDatasetIDs,
		TestDatasetIDs:   fold.TestDatasetIDs,
		BaseModel:        opts.BaseModel,
		TrainingFileID:   trainingFileID,
		ValidationFileID: validationFileID,
		JobID:            job.ID,
		Status:           job.Status,
	}

	if opts.NoWait {
		report.Status = "submitted"

		return report, artifacts.SaveJSON(foldReportPath(runDir, fold.Name), report)
	}

	final, err := p.tuner.PollJob(ctx, job.ID, opts.PollInterval, opts.MaxWait)
	if err != nil {
		return report, err
	}

	report.Status = final.Status

	if final.Status != llm.StatusSucceeded {
		_ = artifacts.SaveJSON(foldReportPath(runDir, fold.Name), report) //nolint:errcheck // failure path, the job error dominates

		return report, fmt.Errorf("%w: fold %s job %s finished with status %s", errors.ErrJobFailed, fold.Name, job.ID, final.Status)
	}

	if final.FineTunedModel == "" {
		_ = artifacts.SaveJSON(foldReportPath(runDir, fold.Name), report) //nolint:errcheck // failure path, the job error dominates

		return report, fmt.Errorf("%w: fold %s job %s succeeded without a fine-tuned model id", errors.ErrJobFailed, fold.Name, job.ID)
	}

	report.TunedModel = final.FineTunedModel

	records, err := artifacts.ReadEvalRecords(testEvalPath)
	if err != nil {
		return report, err
	}

	tunedEval, err := p.evaluator.Evaluate(ctx, final.FineTunedModel, records, opts.Temperature, opts.MaxSamples)
	if err != nil {
		return report, fmt.Errorf("evaluating tuned model for fold %s: %w", fold.Name, err)
	}

	report.TunedEval = tunedEval
	p.logger.Info().Msg(FormatMetricsLine(fold.Name+" tuned", tunedEval.Metrics))

	if !opts.SkipBaseline {
		baselineEval, err := p.evaluator.Evaluate(ctx, opts.BaseModel, records, opts.Temperature, opts.MaxSamples)
		if err != nil {
			return report, fmt.Errorf("evaluating baseline for fold %s: %w", fold.Name, err)
		}

		report.BaselineEval = baselineEval
		p.logger.Info().Msg(FormatMetricsLine(fold.Name+" baseline", baselineEval.Metrics))
	}

	pass := report.BaselineEval == nil || report.TunedEval.Metrics.Score >= report.BaselineEval.Metrics.Score
	report.NonRegressionPass = &pass

	if !pass {
		p.logger.Warn().Str("fold", fold.Name).Msg("tuned model scored below baseline")
	}

	return report, artifacts.SaveJSON(foldReportPath(runDir, fold.Name), report)
}

func foldReportPath(runDir, foldName string) string {
	return filepath.Join(runDir, foldName+".json")
}

// buildSelection derives the run verdict from folds that completed an
// evaluation. Returns nil when no fold got that far (no-wait or failures).
func buildSelection(reports []FoldReport, opts CVOptions) *Selection {
	var (
		tunedScores    []int
		baselineScores []int
		allPass        = true
	)

	for _, report := range reports {
		if report.TunedEval == nil {
			continue
		}

		tunedScores = append(tunedScores, report.TunedEval.Metrics.Score)

		if report.BaselineEval != nil {
			baselineScores = append(baselineScores, report.BaselineEval.Metrics.Score)
		}

		if report.NonRegressionPass != nil && !*report.NonRegressionPass {
			allPass = false
		}
	}

	if len(tunedScores) == 0 {
		return nil
	}

	selection := &Selection{
		MeanTunedScore:       mean(tunedScores),
		AllNonRegressionPass: allPass,
		SelectedConfiguration: SelectedConfiguration{
			BaseModel:       opts.BaseModel,
			Hyperparameters: opts.Hyperparameters,
		},
	}

	if len(baselineScores) > 0 {
		baselineMean := mean(baselineScores)
		selection.MeanBaselineScore = &baselineMean
	}

	return selection
}

func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}

	return float64(sum) / float64(len(values))
}

// registerCVRun appends the run to the registry in its distilled form.
func (p *Pipeline) registerCVRun(summary *CVSummary, runDir string) error {
	entry := artifacts.CVRunEntry{
		RunID:     summary.RunID,
		CreatedAt: summary.CreatedAt,
		BaseModel: summary.BaseModel,
		RunDir:    runDir,
	}

	if summary.Selection != nil {
		meanTuned := summary.Selection.MeanTunedScore
		entry.MeanTunedScore = &meanTuned
	}

	for _, report := range summary.FoldReports {
		entry.Folds = append(entry.Folds, artifacts.FoldStatus{
			Name:              report.Fold,
			Status:            report.Status,
			TunedModel:        report.TunedModel,
			NonRegressionPass: report.NonRegressionPass,
		})
	}

	return artifacts.NewRegistryStore(p.cfg.RegistryPath()).AppendCVRun(entry)
}

// saveCVSummary persists a partial run after a fold failure so the on-disk
// record matches what actually happened.
func (p *Pipeline) saveCVSummary(runDir, slug string, opts CVOptions, reports []FoldReport) {
	if len(reports) == 0 {
		return
	}

	summary := &CVSummary{
		RunID:       slug,
		CreatedAt:   nowISO(),
		BaseModel:   opts.BaseModel,
		NoWait:      opts.NoWait,
		FoldReports: reports,
	}

	if err := artifacts.SaveJSON(filepath.Join(runDir, "summary.json"), summary); err != nil {
		p.logger.Error().Err(err).Msg("failed to persist partial run summary")
	}
}

// printPreparedSummary dumps the prepare summary so the operator can review
// what a real run would consume.
func (p *Pipeline) printPreparedSummary(preparedDir string) error {
	summaryPath := filepath.Join(preparedDir, "summary.json")

	data, err := os.ReadFile(summaryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s (run prepare first)", errors.ErrMissingResource, summaryPath)
		}

		return fmt.Errorf("reading %s: %w", summaryPath, err)
	}

	fmt.Println(string(data)) //nolint:forbidigo // dry-run output is for the operator

	return nil
}
