package llm

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
)

func pollClient(retrieve func(ctx context.Context, jobID string) (JobResult, error)) *openaiClient {
	logger := zerolog.Nop()

	return &openaiClient{retrieveJob: retrieve, logger: &logger}
}

func TestPollJob_ReturnsTerminalResult(t *testing.T) {
	polls := 0
	c := pollClient(func(_ context.Context, jobID string) (JobResult, error) {
		polls++
		if polls < 3 {
			return JobResult{ID: jobID, Status: "running"}, nil
		}

		return JobResult{ID: jobID, Status: StatusSucceeded, FineTunedModel: "ft:done"}, nil
	})

	result, err := c.PollJob(context.Background(), "ftjob-1", time.Millisecond, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, result.Status)
	assert.Equal(t, "ft:done", result.FineTunedModel)
	assert.Equal(t, 3, polls)
}

func TestPollJob_MaxWaitTimeout(t *testing.T) {
	c := pollClient(func(_ context.Context, jobID string) (JobResult, error) {
		time.Sleep(2 * time.Millisecond)

		return JobResult{ID: jobID, Status: "running"}, nil
	})

	// The interval is long on purpose: the deadline check must fire before
	// the next sleep, or this test hangs.
	_, err := c.PollJob(context.Background(), "ftjob-1", time.Hour, time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPollTimeout)
}

func TestPollJob_ContextCancelled(t *testing.T) {
	c := pollClient(func(_ context.Context, jobID string) (JobResult, error) {
		return JobResult{ID: jobID, Status: "running"}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.PollJob(ctx, "ftjob-1", time.Hour, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPollJob_RetrieveError(t *testing.T) {
	c := pollClient(func(_ context.Context, _ string) (JobResult, error) {
		return JobResult{}, assert.AnError
	})

	_, err := c.PollJob(context.Background(), "ftjob-1", time.Millisecond, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
