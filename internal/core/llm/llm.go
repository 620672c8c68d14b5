// Package llm is the boundary to the remote classification and fine-tuning
// service. The rest of the pipeline sees messages-in/raw-text-out and an
// explicit job result, never provider SDK types.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
)

// Classifier sends one transcript to a model and returns its raw text output.
type Classifier interface {
	Classify(ctx context.Context, model string, messages []domain.ChatMessage, temperature float32) (string, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, model string, messages []domain.ChatMessage, temperature float32) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, model string, messages []domain.ChatMessage, temperature float32) (string, error) {
	return f(ctx, model, messages, temperature)
}

// JobResult is the explicit shape of a fine-tuning job observation. Status is
// always set; FineTunedModel only once a job has succeeded.
type JobResult struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	FineTunedModel string `json:"fine_tuned_model,omitempty"`
}

// Terminal fine-tuning job statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Terminal reports whether a job status will never change again.
func (r JobResult) Terminal() bool {
	switch r.Status {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// TuningService submits fine-tuning jobs and polls them to a terminal state.
type TuningService interface {
	UploadFile(ctx context.Context, path string) (string, error)
	CreateJob(ctx context.Context, model, trainingFileID, validationFileID string, hp Hyperparameters) (JobResult, error)
	PollJob(ctx context.Context, jobID string, interval, maxWait time.Duration) (JobResult, error)
}

// NormalizeLabel maps raw classifier output to a label. Exact prefix match
// wins; otherwise a substring match counts only when exactly one of the two
// keywords is present. Empty or ambiguous output returns ok=false.
func NormalizeLabel(raw string) (domain.Label, bool) {
	text := strings.ToUpper(strings.TrimSpace(raw))
	if text == "" {
		return "", false
	}

	if strings.HasPrefix(text, string(domain.LabelBot)) {
		return domain.LabelBot, true
	}

	if strings.HasPrefix(text, string(domain.LabelHuman)) {
		return domain.LabelHuman, true
	}

	hasBot := strings.Contains(text, string(domain.LabelBot))
	hasHuman := strings.Contains(text, string(domain.LabelHuman))

	switch {
	case hasBot && !hasHuman:
		return domain.LabelBot, true
	case hasHuman && !hasBot:
		return domain.LabelHuman, true
	default:
		return "", false
	}
}
