// Package metrics turns classification outcomes into confusion-matrix counts
// and the weighted detection score.
package metrics

import "github.com/lueurxax/bot-detection-pipeline/internal/core/domain"

// Score weights: catching a bot is worth the most, wrongly flagging a human
// costs more than missing a bot.
const (
	weightTruePositive  = 4
	weightFalsePositive = 2
	weightFalseNegative = 1
)

// ClassificationPoint is one observed (truth, prediction) outcome for a user.
type ClassificationPoint struct {
	UserID    string
	DatasetID int
	Truth     domain.Label
	Predicted domain.Label
}

// Metrics aggregates a set of classification points. Recomputed from scratch
// each time, never updated incrementally.
type Metrics struct {
	Total    int     `json:"total"`
	Bots     int     `json:"bots"`
	Humans   int     `json:"humans"`
	TP       int     `json:"tp"`
	TN       int     `json:"tn"`
	FP       int     `json:"fp"`
	FN       int     `json:"fn"`
	Accuracy float64 `json:"accuracy"`
	Score    int     `json:"score"`
	MaxScore int     `json:"max_score"`
	PctMax   float64 `json:"pct_max"`
}

// Compute accumulates confusion-matrix counts over points and derives the
// score fields. Pure and order-independent.
func Compute(points []ClassificationPoint) Metrics {
	var tp, tn, fp, fn int

	for _, point := range points {
		isBot := point.Truth == domain.LabelBot
		predictedBot := point.Predicted == domain.LabelBot

		switch {
		case isBot && predictedBot:
			tp++
		case isBot && !predictedBot:
			fn++
		case !isBot && predictedBot:
			fp++
		default:
			tn++
		}
	}

	return FromCounts(tp, tn, fp, fn)
}

// FromCounts derives Metrics directly from confusion-matrix counts. Used by
// the run checker, which counts via set arithmetic instead of point streams.
func FromCounts(tp, tn, fp, fn int) Metrics {
	m := Metrics{
		Total:  tp + tn + fp + fn,
		Bots:   tp + fn,
		Humans: tn + fp,
		TP:     tp,
		TN:     tn,
		FP:     fp,
		FN:     fn,
	}

	m.Score = weightTruePositive*tp - weightFalsePositive*fp - weightFalseNegative*fn
	m.MaxScore = weightTruePositive * m.Bots

	if m.Total > 0 {
		m.Accuracy = 100 * float64(tp+tn) / float64(m.Total)
	}

	if m.MaxScore > 0 {
		m.PctMax = 100 * float64(m.Score) / float64(m.MaxScore)
	}

	return m
}
