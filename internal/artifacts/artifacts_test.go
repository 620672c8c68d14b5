package artifacts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
)

func sampleExamples() []domain.UserExample {
	return []domain.UserExample{
		{
			UserID:        "u1",
			DatasetID:     30,
			Lang:          "en",
			Label:         domain.LabelBot,
			FullPostCount: 3,
			PostCountUsed: 3,
			UserPrompt:    "User ID: u1\n\nPosts:\nhello <world> & everyone",
		},
		{
			UserID:    "u2",
			DatasetID: 31,
			Lang:      "de",
			Label:     domain.LabelHuman,
		},
	}
}

func TestWriteEval_ReadEvalRecords_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "test.eval.jsonl")

	require.NoError(t, WriteEval(path, sampleExamples()))

	records, err := ReadEvalRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "u1", records[0].UserID)
	assert.Equal(t, 30, records[0].DatasetID)
	assert.Equal(t, domain.LabelBot, records[0].Label)
	require.Len(t, records[0].Messages, 2)
	assert.Equal(t, domain.RoleSystem, records[0].Messages[0].Role)
	assert.Equal(t, domain.RoleUser, records[0].Messages[1].Role)

	// Content must not be HTML-escaped.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<world> &")
}

func TestWriteSFT_ThreeTurns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.jsonl")

	require.NoError(t, WriteSFT(path, sampleExamples()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"role":"assistant"`)
	assert.Contains(t, lines[0], `"content":"BOT"`)
}

func TestRunFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.txt")

	require.NoError(t, WriteRunFile(path, "v5", "openai/ft:gpt-test", []int{30, 31}, []string{"u1", "u9"}))

	run, err := ParseRunFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int{30, 31}, run.DatasetIDs)
	assert.Equal(t, []string{"u1", "u9"}, run.PredictedBotIDs)
}

func TestParseRunFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ParseRunFile(filepath.Join(dir, "absent.txt"))
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	_, err = ParseRunFile(empty)
	assert.ErrorIs(t, err, errors.ErrEmptyRunFile)

	noHeader := filepath.Join(dir, "noheader.txt")
	require.NoError(t, os.WriteFile(noHeader, []byte("u1\nu2\n"), 0o600))

	_, err = ParseRunFile(noHeader)
	assert.ErrorIs(t, err, errors.ErrNoDatasetsDeclared)
}

func TestParseRunFile_CaseInsensitiveHeaderAndMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.txt")
	content := "datasets: 30 , 33\nDetector: v5\nModel: openai/x\nBatch size: 1\n\nu1\n\nu2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	run, err := ParseRunFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int{30, 33}, run.DatasetIDs)
	assert.Equal(t, []string{"u1", "u2"}, run.PredictedBotIDs)
}

func TestRegistryStore(t *testing.T) {
	dir := t.TempDir()
	store := NewRegistryStore(filepath.Join(dir, "models.json"))

	registry, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, registry.CVRuns)

	require.NoError(t, store.AppendCVRun(CVRunEntry{RunID: "cv-1", BaseModel: "base"}))
	require.NoError(t, store.AppendFinalJob(FinalJobEntry{JobID: "job-1", Status: "succeeded", FineTunedModel: "ft:model"}))

	registry, err = store.Load()
	require.NoError(t, err)
	require.Len(t, registry.CVRuns, 1)
	require.Len(t, registry.FinalJobs, 1)
	assert.Equal(t, "cv-1", registry.CVRuns[0].RunID)
	assert.Equal(t, "ft:model", registry.LatestFinalModel)
	assert.NotEmpty(t, registry.UpdatedAt)
}
