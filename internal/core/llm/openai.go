package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
	"github.com/lueurxax/bot-detection-pipeline/internal/platform/observability"
)

const (
	rateLimiterBurst = 5
	// The model is instructed to answer with a single word; a small cap keeps
	// malformed rambling cheap.
	classifyMaxTokens = 8

	errRateLimiter = "rate limiter: %w"
)

type openaiClient struct {
	client      *openai.Client
	retrieveJob func(ctx context.Context, jobID string) (JobResult, error)
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewOpenAI builds a client implementing both Classifier and TuningService
// against the OpenAI API.
func NewOpenAI(apiKey string, rps float64, logger *zerolog.Logger) *openaiClient { //nolint:revive // both interfaces are satisfied; callers pick the one they need
	c := &openaiClient{
		client:      openai.NewClient(apiKey),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), rateLimiterBurst),
	}
	c.retrieveJob = func(ctx context.Context, jobID string) (JobResult, error) {
		job, err := c.client.RetrieveFineTuningJob(ctx, jobID)
		if err != nil {
			return JobResult{}, err
		}

		return jobResult(job), nil
	}

	return c
}

func (c *openaiClient) Classify(ctx context.Context, model string, messages []domain.ChatMessage, temperature float32) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    message.Role,
			Content: message.Content,
		})
	}

	started := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages,
		Temperature: temperature,
		MaxTokens:   classifyMaxTokens,
	})

	observability.ClassificationDuration.WithLabelValues(model).Observe(time.Since(started).Seconds())

	if err != nil {
		observability.ClassificationRequests.WithLabelValues(model, "error").Inc()

		return "", fmt.Errorf("chat completion: %w", err)
	}

	observability.ClassificationRequests.WithLabelValues(model, "ok").Inc()

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *openaiClient) UploadFile(ctx context.Context, path string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	file, err := c.client.CreateFile(ctx, openai.FileRequest{
		FileName: path,
		FilePath: path,
		Purpose:  "fine-tune",
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", path, err)
	}

	c.logger.Info().Str("path", path).Str("file_id", file.ID).Msg("uploaded training file")

	return file.ID, nil
}

func (c *openaiClient) CreateJob(ctx context.Context, model, trainingFileID, validationFileID string, hp Hyperparameters) (JobResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return JobResult{}, fmt.Errorf(errRateLimiter, err)
	}

	request := openai.FineTuningJobRequest{
		Model:          model,
		TrainingFile:   trainingFileID,
		ValidationFile: validationFileID,
	}

	if !hp.Empty() {
		request.Hyperparameters = &openai.Hyperparameters{
			Epochs:                 hp.Epochs.Payload(),
			BatchSize:              hp.BatchSize.Payload(),
			LearningRateMultiplier: hp.LearningRateMultiplier.Payload(),
		}
	}

	job, err := c.client.CreateFineTuningJob(ctx, request)
	if err != nil {
		return JobResult{}, fmt.Errorf("creating fine-tuning job: %w", err)
	}

	c.logger.Info().Str("job_id", job.ID).Str("model", model).Msg("fine-tuning job submitted")

	return jobResult(job), nil
}

// PollJob blocks until the job reaches a terminal status, polling every
// interval. A maxWait of 0 waits indefinitely; on timeout the remote job
// keeps running, the caller simply stops waiting.
func (c *openaiClient) PollJob(ctx context.Context, jobID string, interval, maxWait time.Duration) (JobResult, error) {
	started := time.Now()

	for {
		result, err := c.retrieveJob(ctx, jobID)
		if err != nil {
			observability.JobPolls.WithLabelValues("error").Inc()

			return JobResult{}, fmt.Errorf("retrieving job %s: %w", jobID, err)
		}

		observability.JobPolls.WithLabelValues(result.Status).Inc()
		c.logger.Debug().Str("job_id", jobID).Str("status", result.Status).Msg("polled fine-tuning job")

		if result.Terminal() {
			return result, nil
		}

		if maxWait > 0 && time.Since(started) >= maxWait {
			return JobResult{}, fmt.Errorf("%w: job %s after %s", errors.ErrPollTimeout, jobID, maxWait)
		}

		select {
		case <-ctx.Done():
			return JobResult{}, fmt.Errorf("polling job %s: %w", jobID, ctx.Err())
		case <-time.After(interval):
		}
	}
}

func jobResult(job openai.FineTuningJob) JobResult {
	return JobResult{
		ID:             job.ID,
		Status:         job.Status,
		FineTunedModel: job.FineTunedModel,
	}
}
