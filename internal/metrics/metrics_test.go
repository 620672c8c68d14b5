package metrics

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
)

func point(truth, predicted domain.Label) ClassificationPoint {
	return ClassificationPoint{Truth: truth, Predicted: predicted}
}

func TestCompute_Empty(t *testing.T) {
	m := Compute(nil)

	assert.Equal(t, 0, m.Total)
	assert.Equal(t, 0.0, m.Accuracy)
	assert.Equal(t, 0.0, m.PctMax)
}

func TestCompute_ScoreFormula(t *testing.T) {
	// tp=3, fp=1, fn=2, tn=0 -> score = 4*3 - 2*1 - 1*2 = 8, max = 4*5 = 20.
	points := []ClassificationPoint{
		point(domain.LabelBot, domain.LabelBot),
		point(domain.LabelBot, domain.LabelBot),
		point(domain.LabelBot, domain.LabelBot),
		point(domain.LabelHuman, domain.LabelBot),
		point(domain.LabelBot, domain.LabelHuman),
		point(domain.LabelBot, domain.LabelHuman),
	}

	m := Compute(points)

	assert.Equal(t, 3, m.TP)
	assert.Equal(t, 1, m.FP)
	assert.Equal(t, 2, m.FN)
	assert.Equal(t, 0, m.TN)
	assert.Equal(t, 8, m.Score)
	assert.Equal(t, 20, m.MaxScore)
	assert.InDelta(t, 40.0, m.PctMax, 1e-9)
}

func TestCompute_Totals(t *testing.T) {
	points := []ClassificationPoint{
		point(domain.LabelBot, domain.LabelBot),
		point(domain.LabelBot, domain.LabelHuman),
		point(domain.LabelHuman, domain.LabelBot),
		point(domain.LabelHuman, domain.LabelHuman),
		point(domain.LabelHuman, domain.LabelHuman),
	}

	m := Compute(points)

	assert.Equal(t, m.Total, m.TP+m.TN+m.FP+m.FN)
	assert.Equal(t, m.Total, m.Bots+m.Humans)
	assert.Equal(t, 2, m.Bots)
	assert.Equal(t, 3, m.Humans)
	assert.InDelta(t, 100*3.0/5.0, m.Accuracy, 1e-9)
}

func TestCompute_OrderIndependent(t *testing.T) {
	points := []ClassificationPoint{
		point(domain.LabelBot, domain.LabelBot),
		point(domain.LabelBot, domain.LabelHuman),
		point(domain.LabelHuman, domain.LabelBot),
		point(domain.LabelHuman, domain.LabelHuman),
		point(domain.LabelBot, domain.LabelBot),
		point(domain.LabelHuman, domain.LabelHuman),
	}

	want := Compute(points)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(points), func(a, b int) {
			points[a], points[b] = points[b], points[a]
		})
		assert.Equal(t, want, Compute(points))
	}
}

func TestFromCounts_MatchesCompute(t *testing.T) {
	points := []ClassificationPoint{
		point(domain.LabelBot, domain.LabelBot),
		point(domain.LabelHuman, domain.LabelBot),
		point(domain.LabelBot, domain.LabelHuman),
		point(domain.LabelHuman, domain.LabelHuman),
	}

	m := Compute(points)

	assert.Equal(t, m, FromCounts(m.TP, m.TN, m.FP, m.FN))
}
