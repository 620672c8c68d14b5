package split

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
)

func makeExamples(label domain.Label, lang string, n int) []domain.UserExample {
	examples := make([]domain.UserExample, 0, n)
	for i := 0; i < n; i++ {
		examples = append(examples, domain.UserExample{
			UserID: fmt.Sprintf("%s-%s-%03d", label, lang, i),
			Label:  label,
			Lang:   lang,
		})
	}

	return examples
}

func TestStratified_InvalidFraction(t *testing.T) {
	examples := makeExamples(domain.LabelHuman, "en", 4)

	for _, fraction := range []float64{0, 1, -0.1, 1.5} {
		_, _, err := Stratified(examples, fraction, 1)
		require.Error(t, err, "fraction %v", fraction)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	}
}

func TestStratified_DisjointUnion(t *testing.T) {
	examples := append(makeExamples(domain.LabelHuman, "en", 17), makeExamples(domain.LabelBot, "en", 5)...)
	examples = append(examples, makeExamples(domain.LabelHuman, "de", 8)...)

	train, val, err := Stratified(examples, 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, len(examples), len(train)+len(val))
	assert.Zero(t, OverlapSize(train, val))

	union := UserIDSet(train)
	for id := range UserIDSet(val) {
		union[id] = struct{}{}
	}

	assert.Equal(t, len(examples), len(union))
}

func TestStratified_Deterministic(t *testing.T) {
	examples := append(makeExamples(domain.LabelHuman, "en", 23), makeExamples(domain.LabelBot, "de", 11)...)

	train1, val1, err := Stratified(examples, 0.3, 99)
	require.NoError(t, err)

	train2, val2, err := Stratified(examples, 0.3, 99)
	require.NoError(t, err)

	assert.Equal(t, train1, train2)
	assert.Equal(t, val1, val2)

	// A different seed should move at least something for sets this size.
	_, val3, err := Stratified(examples, 0.3, 100)
	require.NoError(t, err)
	assert.NotEqual(t, val1, val3)
}

func TestStratified_OutputSortedByUserID(t *testing.T) {
	examples := append(makeExamples(domain.LabelBot, "en", 9), makeExamples(domain.LabelHuman, "en", 9)...)

	train, val, err := Stratified(examples, 0.25, 5)
	require.NoError(t, err)

	for _, list := range [][]domain.UserExample{train, val} {
		for i := 1; i < len(list); i++ {
			assert.Less(t, list[i-1].UserID, list[i].UserID)
		}
	}
}

func TestValidationCount_Bounds(t *testing.T) {
	tests := []struct {
		k        int
		fraction float64
		want     int
	}{
		{0, 0.5, 0},
		{1, 0.5, 0},
		{2, 0.5, 1},
		{2, 0.9, 1},   // capped at k-1
		{10, 0.01, 1}, // floored at 1
		{15, 0.10, 2}, // 1.5 rounds half to even, up
		{25, 0.10, 2}, // 2.5 rounds half to even, down
		{10, 0.5, 5},
		{10, 0.99, 9},
	}

	for _, tt := range tests {
		got := validationCount(tt.k, tt.fraction)
		assert.Equal(t, tt.want, got, "k=%d fraction=%v", tt.k, tt.fraction)

		if tt.k >= 2 {
			assert.GreaterOrEqual(t, got, 1)
			assert.LessOrEqual(t, got, tt.k-1)
		}
	}
}

func TestStratified_SingletonBucketStaysInTrain(t *testing.T) {
	// One BOT, two HUMANs: the lone BOT cannot be split and must train.
	examples := []domain.UserExample{
		{UserID: "user1", Label: domain.LabelHuman, Lang: "en"},
		{UserID: "user2", Label: domain.LabelBot, Lang: "en"},
		{UserID: "user3", Label: domain.LabelHuman, Lang: "en"},
	}

	train, val, err := Stratified(examples, 0.5, 1)
	require.NoError(t, err)

	require.Len(t, train, 2)
	require.Len(t, val, 1)

	trainIDs := UserIDSet(train)
	assert.Contains(t, trainIDs, "user2")
	assert.Equal(t, domain.LabelHuman, val[0].Label)
}
