package evaluate

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/llm"
)

func record(userID string, datasetID int, label domain.Label) domain.EvalRecord {
	return domain.EvalRecord{
		UserID:    userID,
		DatasetID: datasetID,
		Lang:      "en",
		Label:     label,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: domain.SystemPrompt},
			{Role: domain.RoleUser, Content: "profile of " + userID},
		},
	}
}

// scriptedClassifier answers from a fixed map keyed by the user turn.
func scriptedClassifier(answers map[string]string) llm.Classifier {
	return llm.ClassifierFunc(func(_ context.Context, _ string, messages []domain.ChatMessage, _ float32) (string, error) {
		return answers[messages[len(messages)-1].Content], nil
	})
}

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func TestEvaluate(t *testing.T) {
	records := []domain.EvalRecord{
		record("u1", 30, domain.LabelBot),
		record("u2", 30, domain.LabelHuman),
		record("u3", 31, domain.LabelBot),
		record("u4", 31, domain.LabelHuman),
	}

	classifier := scriptedClassifier(map[string]string{
		"profile of u1": "BOT",
		"profile of u2": "BOT",   // false positive
		"profile of u3": "HUMAN", // false negative
		"profile of u4": "human.",
	})

	report, err := New(classifier, testLogger()).Evaluate(context.Background(), "test-model", records, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalExamples)
	assert.Equal(t, 0, report.InvalidOutputCount)
	assert.Equal(t, []string{"u1", "u2"}, report.PredictedBotIDs)

	assert.Equal(t, 1, report.Metrics.TP)
	assert.Equal(t, 1, report.Metrics.FP)
	assert.Equal(t, 1, report.Metrics.FN)
	assert.Equal(t, 1, report.Metrics.TN)
	assert.Equal(t, 4*1-2*1-1*1, report.Metrics.Score)

	require.Contains(t, report.PerDatasetMetrics, "30")
	require.Contains(t, report.PerDatasetMetrics, "31")
	assert.Equal(t, 2, report.PerDatasetMetrics["30"].Total)
	assert.Equal(t, 1, report.PerDatasetMetrics["30"].TP)
	assert.Equal(t, 1, report.PerDatasetMetrics["31"].FN)
}

func TestEvaluate_InvalidOutputsDefaultToHuman(t *testing.T) {
	records := []domain.EvalRecord{
		record("u1", 30, domain.LabelBot),
		record("u2", 30, domain.LabelHuman),
	}

	classifier := scriptedClassifier(map[string]string{
		"profile of u1": "maybe bot or human",
		"profile of u2": "",
	})

	report, err := New(classifier, testLogger()).Evaluate(context.Background(), "test-model", records, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, report.InvalidOutputCount)
	require.Len(t, report.InvalidSamples, 2)
	assert.Equal(t, "u1", report.InvalidSamples[0].UserID)
	assert.Equal(t, "maybe bot or human", report.InvalidSamples[0].RawOutput)

	// Both scored as HUMAN: the bot becomes a miss, the human a correct pass.
	assert.Empty(t, report.PredictedBotIDs)
	assert.Equal(t, 1, report.Metrics.FN)
	assert.Equal(t, 1, report.Metrics.TN)
}

func TestEvaluate_InvalidSamplesCapped(t *testing.T) {
	var records []domain.EvalRecord
	for i := 0; i < 15; i++ {
		records = append(records, record(fmt.Sprintf("u%02d", i), 30, domain.LabelHuman))
	}

	classifier := llm.ClassifierFunc(func(_ context.Context, _ string, _ []domain.ChatMessage, _ float32) (string, error) {
		return "???", nil
	})

	report, err := New(classifier, testLogger()).Evaluate(context.Background(), "m", records, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 15, report.InvalidOutputCount)
	assert.Len(t, report.InvalidSamples, 10)
}

func TestEvaluate_MaxSamplesPrefixTruncation(t *testing.T) {
	records := []domain.EvalRecord{
		record("u1", 30, domain.LabelBot),
		record("u2", 30, domain.LabelHuman),
		record("u3", 30, domain.LabelHuman),
	}

	var seen []string

	classifier := llm.ClassifierFunc(func(_ context.Context, _ string, messages []domain.ChatMessage, _ float32) (string, error) {
		seen = append(seen, messages[1].Content)
		return "HUMAN", nil
	})

	report, err := New(classifier, testLogger()).Evaluate(context.Background(), "m", records, 0, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalExamples)
	assert.Equal(t, []string{"profile of u1", "profile of u2"}, seen)
}

func TestEvaluate_RemoteFailureAborts(t *testing.T) {
	records := []domain.EvalRecord{record("u1", 30, domain.LabelBot)}

	classifier := llm.ClassifierFunc(func(_ context.Context, _ string, _ []domain.ChatMessage, _ float32) (string, error) {
		return "", fmt.Errorf("connection reset")
	})

	_, err := New(classifier, testLogger()).Evaluate(context.Background(), "m", records, 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "u1")
}
