package dataset

import (
	"strconv"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
)

// Summary describes a loaded example set; persisted with prepared artifacts
// so corpus drift is visible between runs.
type Summary struct {
	TotalExamples        int            `json:"total_examples"`
	Labels               map[string]int `json:"labels"`
	Languages            map[string]int `json:"languages"`
	Datasets             map[string]int `json:"datasets"`
	TruncationMismatches int            `json:"truncation_mismatches"`
}

// Summarize counts examples per label, language, and dataset.
func Summarize(examples []domain.UserExample) Summary {
	summary := Summary{
		TotalExamples: len(examples),
		Labels:        make(map[string]int),
		Languages:     make(map[string]int),
		Datasets:      make(map[string]int),
	}

	for _, example := range examples {
		summary.Labels[string(example.Label)]++
		summary.Languages[example.Lang]++
		summary.Datasets[strconv.Itoa(example.DatasetID)]++

		if example.PostCountUsed != example.FullPostCount {
			summary.TruncationMismatches++
		}
	}

	return summary
}
