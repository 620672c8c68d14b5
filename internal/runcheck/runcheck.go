// Package runcheck reconciles a prediction run file against dataset ground
// truth. Unlike example loading, it is a diagnostic tool and degrades
// gracefully: missing dataset files are warnings, not failures.
package runcheck

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/lueurxax/bot-detection-pipeline/internal/artifacts"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
	"github.com/lueurxax/bot-detection-pipeline/internal/dataset"
	"github.com/lueurxax/bot-detection-pipeline/internal/metrics"
)

// maxUnknownShown caps how many unknown predicted ids are listed verbatim.
const maxUnknownShown = 10

// UserDetail is the metadata rendered for each false positive / false
// negative so a human can review the case.
type UserDetail struct {
	UserID      string   `json:"user_id"`
	DatasetID   int      `json:"dataset_id"`
	Username    string   `json:"username"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	TweetCount  *int64   `json:"tweet_count,omitempty"`
	ZScore      *float64 `json:"z_score,omitempty"`
}

// Result is a scored reconciliation of predictions against ground truth.
type Result struct {
	DatasetIDs     []int           `json:"datasets"`
	Metrics        metrics.Metrics `json:"metrics"`
	UnknownIDs     []string        `json:"unknown_ids"`
	FalsePositives []UserDetail    `json:"false_positives"`
	FalseNegatives []UserDetail    `json:"false_negatives"`
}

// truthEntry pairs a user's label with its source metadata.
type truthEntry struct {
	isBot  bool
	detail UserDetail
}

// Check builds ground truth for the run's datasets and scores the predicted
// bot ids against it with set semantics.
//
// Predicted ids absent from every loaded dataset are reported and excluded
// from scoring so they cannot distort the confusion matrix. Returns
// ErrNoGroundTruth when no users load at all.
func Check(dir string, run *artifacts.RunFile, logger *zerolog.Logger) (*Result, error) {
	truth := loadTruth(dir, run.DatasetIDs, logger)
	if len(truth) == 0 {
		return nil, fmt.Errorf("%w: datasets %v", errors.ErrNoGroundTruth, run.DatasetIDs)
	}

	predicted := make(map[string]struct{}, len(run.PredictedBotIDs))

	var unknown []string

	for _, id := range run.PredictedBotIDs {
		if _, ok := truth[id]; ok {
			predicted[id] = struct{}{}
		} else {
			unknown = append(unknown, id)
		}
	}

	sort.Strings(unknown)

	if len(unknown) > 0 {
		logger.Warn().Int("count", len(unknown)).Msg("predicted user ids not present in any loaded dataset; excluded from scoring")
	}

	result := &Result{DatasetIDs: run.DatasetIDs, UnknownIDs: unknown}

	var tp, tn, fp, fn int

	ids := make([]string, 0, len(truth))
	for id := range truth {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		entry := truth[id]
		_, predictedBot := predicted[id]

		switch {
		case entry.isBot && predictedBot:
			tp++
		case entry.isBot && !predictedBot:
			fn++
			result.FalseNegatives = append(result.FalseNegatives, entry.detail)
		case !entry.isBot && predictedBot:
			fp++
			result.FalsePositives = append(result.FalsePositives, entry.detail)
		default:
			tn++
		}
	}

	result.Metrics = metrics.FromCounts(tp, tn, fp, fn)

	return result, nil
}

// loadTruth defaults every user in each dataset to HUMAN, then overlays BOT
// for ids in the dataset's bot file. Missing files skip the dataset (or its
// labels) with a warning.
func loadTruth(dir string, datasetIDs []int, logger *zerolog.Logger) map[string]truthEntry {
	truth := make(map[string]truthEntry)

	for _, datasetID := range datasetIDs {
		datasetPath := dataset.DatasetPath(dir, datasetID)

		ds, err := dataset.ReadDataset(datasetPath)
		if err != nil {
			logger.Warn().Err(err).Int("dataset", datasetID).Msg("dataset file unavailable, skipping dataset")

			continue
		}

		for _, user := range ds.Users {
			truth[user.ID] = truthEntry{detail: userDetail(user, datasetID)}
		}

		botsPath := dataset.BotsPath(dir, datasetID)
		if _, err := os.Stat(botsPath); err != nil {
			logger.Warn().Int("dataset", datasetID).Msg("bot label file unavailable, skipping bot labels for dataset")

			continue
		}

		botIDs, err := dataset.ReadBotIDs(botsPath)
		if err != nil {
			logger.Warn().Err(err).Int("dataset", datasetID).Msg("bot label file unreadable, skipping bot labels for dataset")

			continue
		}

		for id := range botIDs {
			if entry, ok := truth[id]; ok {
				entry.isBot = true
				truth[id] = entry
			}
			// Bot-file ids without a matching user are expected to be a
			// subset mismatch and are ignored.
		}
	}

	return truth
}

func userDetail(user dataset.User, datasetID int) UserDetail {
	detail := UserDetail{
		UserID:      user.ID,
		DatasetID:   datasetID,
		Username:    "?",
		Name:        "?",
		Description: "(none)",
		Location:    "(none)",
		TweetCount:  user.TweetCount,
		ZScore:      user.ZScore,
	}

	if user.Username != nil {
		detail.Username = *user.Username
	}

	if user.Name != nil {
		detail.Name = *user.Name
	}

	if user.Description != "" {
		detail.Description = user.Description
	}

	if user.Location != "" {
		detail.Location = user.Location
	}

	return detail
}

// Format renders the console summary for a checked run.
func (r *Result) Format(runFileName string) string {
	m := r.Metrics

	out := "--- Run accuracy ---\n"
	out += "Run file: " + runFileName + "\n"
	out += "Datasets: " + formatInts(r.DatasetIDs) + "\n"
	out += fmt.Sprintf("Total users: %d\n\n", m.Total)

	out += "Counts:\n"
	out += fmt.Sprintf("  Correct (TP + TN): %d  (%.2f%%)\n", m.TP+m.TN, m.Accuracy)
	out += fmt.Sprintf("  False Positives:   %d  (%.2f%%)\n", m.FP, pct(m.FP, m.Total))
	out += fmt.Sprintf("  False Negatives:   %d  (%.2f%%)\n\n", m.FN, pct(m.FN, m.Total))

	out += fmt.Sprintf("Score (+4 TP, -1 FN, -2 FP): %d / %d (%.1f%%)\n", m.Score, m.MaxScore, m.PctMax)

	if len(r.UnknownIDs) > 0 {
		out += fmt.Sprintf("\nUnknown predicted ids (%d, excluded from scoring):\n", len(r.UnknownIDs))

		for i, id := range r.UnknownIDs {
			if i == maxUnknownShown {
				out += fmt.Sprintf("  ... and %d more\n", len(r.UnknownIDs)-maxUnknownShown)

				break
			}

			out += "  " + id + "\n"
		}
	}

	out += formatDetails("False positives (humans wrongly flagged)", r.FalsePositives)
	out += formatDetails("False negatives (bots missed)", r.FalseNegatives)

	return out
}

func formatDetails(title string, details []UserDetail) string {
	if len(details) == 0 {
		return ""
	}

	out := fmt.Sprintf("\n%s:\n", title)

	for _, d := range details {
		tweetCount := "?"
		if d.TweetCount != nil {
			tweetCount = strconv.FormatInt(*d.TweetCount, 10)
		}

		zScore := "?"
		if d.ZScore != nil {
			zScore = strconv.FormatFloat(*d.ZScore, 'g', -1, 64)
		}

		out += fmt.Sprintf("  [%d] %s username=%s name=%q description=%q location=%q tweets=%s z-score=%s\n",
			d.DatasetID, d.UserID, d.Username, d.Name, d.Description, d.Location, tweetCount, zScore)
	}

	return out
}

func formatInts(ids []int) string {
	out := ""

	for i, id := range ids {
		if i > 0 {
			out += ", "
		}

		out += strconv.Itoa(id)
	}

	return out
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}

	return 100 * float64(part) / float64(total)
}
