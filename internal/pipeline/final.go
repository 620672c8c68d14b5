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
)

// FinalOptions control the final full-corpus training job.
type FinalOptions struct {
	BaseModel       string
	Hyperparameters llm.Hyperparameters
	PollInterval    time.Duration
	MaxWait         time.Duration
	DryRun          bool
	NoWait          bool
}

// FinalJobReport is the persisted record of one final training job.
type FinalJobReport struct {
	CreatedAt        string              `json:"created_at"`
	BaseModel        string              `json:"base_model"`
	Hyperparameters  llm.Hyperparameters `json:"hyperparameters"`
	TrainingFileID   string              `json:"training_file_id"`
	ValidationFileID string              `json:"validation_file_id"`
	JobID            string              `json:"job_id"`
	Status           string              `json:"status"`
	FineTunedModel   string              `json:"fine_tuned_model,omitempty"`
}

// TrainFinal fine-tunes on the final full-corpus split, waits for the job,
// publishes the tuned model id to final_model.txt and records the job in the
// registry.
func (p *Pipeline) TrainFinal(ctx context.Context, opts FinalOptions) (*FinalJobReport, error) {
	finalSplitDir := filepath.Join(p.cfg.PreparedDir(), "final")
	trainPath := filepath.Join(finalSplitDir, "train.jsonl")
	valPath := filepath.Join(finalSplitDir, "val.jsonl")

	for _, required := range []string{trainPath, valPath} {
		if _, err := os.Stat(required); err != nil {
			return nil, fmt.Errorf("%w: required file %s (run prepare first)", errors.ErrMissingResource, required)
		}
	}

	if opts.DryRun {
		p.logger.Info().Str("train", trainPath).Str("val", valPath).Msg("would submit final training job")

		return &FinalJobReport{Status: "dry_run"}, nil
	}

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
		return nil, fmt.Errorf("creating final job: %w", err)
	}

	jobPath := filepath.Join(p.cfg.FinalDir(), runSlug("final", time.Now())+".json")

	report := &FinalJobReport{
		CreatedAt:        nowISO(),
		BaseModel:        opts.BaseModel,
		Hyperparameters:  opts.Hyperparameters,
		TrainingFileID:   trainingFileID,
		ValidationFileID: validationFileID,
		JobID:            job.ID,
		Status:           job.Status,
	}

	if opts.NoWait {
		report.Status = "submitted"

		if err := artifacts.SaveJSON(jobPath, report); err != nil {
			return nil, err
		}

		p.logger.Info().Str("job_id", job.ID).Str("metadata", jobPath).Msg("submitted final training job")

		return report, nil
	}

	final, err := p.tuner.PollJob(ctx, job.ID, opts.PollInterval, opts.MaxWait)
	if err != nil {
		return report, err
	}

	report.Status = final.Status

	if final.Status != llm.StatusSucceeded {
		_ = artifacts.SaveJSON(jobPath, report) //nolint:errcheck // failure path, the job error dominates

		return report, fmt.Errorf("%w: final job %s finished with status %s", errors.ErrJobFailed, job.ID, final.Status)
	}

	if final.FineTunedModel == "" {
		_ = artifacts.SaveJSON(jobPath, report) //nolint:errcheck // failure path, the job error dominates

		return report, fmt.Errorf("%w: final job %s succeeded without a fine-tuned model id", errors.ErrJobFailed, job.ID)
	}

	report.FineTunedModel = final.FineTunedModel

	if err := artifacts.SaveJSON(jobPath, report); err != nil {
		return report, err
	}

	// Publish the model id where eval resolves it by default, and next to
	// the job metadata.
	for _, path := range []string{p.cfg.FinalModelPath(), filepath.Join(p.cfg.FinalDir(), "final_model.txt")} {
		if err := writeModelFile(path, final.FineTunedModel); err != nil {
			return report, err
		}
	}

	entry := artifacts.FinalJobEntry{
		CreatedAt:      nowISO(),
		BaseModel:      opts.BaseModel,
		JobID:          job.ID,
		Status:         report.Status,
		FineTunedModel: final.FineTunedModel,
		MetadataPath:   jobPath,
	}
	if err := artifacts.NewRegistryStore(p.cfg.RegistryPath()).AppendFinalJob(entry); err != nil {
		return report, err
	}

	p.logger.Info().Str("model", final.FineTunedModel).Str("path", p.cfg.FinalModelPath()).Msg("final model trained")

	return report, nil
}

func writeModelFile(path, model string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(model+"\n"), 0o644); err != nil { //nolint:gosec // model id files are shared artifacts
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}
