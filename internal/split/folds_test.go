package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
)

func TestPairFolds_Disjoint(t *testing.T) {
	folds := PairFolds()
	require.Len(t, folds, 2)
	require.NoError(t, ValidateFolds(folds))

	// The two folds mirror each other.
	assert.Equal(t, folds[0].TrainDatasetIDs, folds[1].TestDatasetIDs)
	assert.Equal(t, folds[0].TestDatasetIDs, folds[1].TrainDatasetIDs)
}

func TestValidateFolds_Overlap(t *testing.T) {
	bad := []PairFold{{Name: "bad", TrainDatasetIDs: []int{1, 2}, TestDatasetIDs: []int{2, 3}}}

	err := ValidateFolds(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestBuildFold(t *testing.T) {
	var examples []domain.UserExample

	for i, datasetID := range []int{30, 31, 32, 33} {
		for _, label := range []domain.Label{domain.LabelBot, domain.LabelHuman} {
			part := makeExamples(label, "en", 6)
			for j := range part {
				part[j].UserID = string(rune('a'+i)) + part[j].UserID
				part[j].DatasetID = datasetID
			}

			examples = append(examples, part...)
		}
	}

	fold := PairFolds()[0]

	result, err := BuildFold(examples, fold, 0.25, 7)
	require.NoError(t, err)

	// Train pool is datasets 30+32 (24 examples), test is 31+33 (24 examples).
	assert.Equal(t, 24, len(result.Train)+len(result.Val))
	assert.Len(t, result.Test, 24)

	assert.Zero(t, OverlapSize(result.Train, result.Val))
	assert.Zero(t, OverlapSize(result.Train, result.Test))
	assert.Zero(t, OverlapSize(result.Val, result.Test))

	for _, example := range result.Test {
		assert.Contains(t, []int{31, 33}, example.DatasetID)
	}
}
