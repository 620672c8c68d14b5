package dataset

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"golang.org/x/text/language"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/domain"
	"github.com/lueurxax/bot-detection-pipeline/internal/core/errors"
	"github.com/lueurxax/bot-detection-pipeline/internal/platform/observability"
)

// LoadExamples loads and labels every user in the requested datasets.
//
// Both source artifacts must exist for every requested dataset id; a missing
// file is a hard ErrMissingResource (unlike the run checker, which degrades
// gracefully). A user id seen in more than one dataset is ErrDataIntegrity.
// The result is sorted by user id so output ordering is independent of file
// iteration order.
func LoadExamples(dir string, datasetIDs []int) ([]domain.UserExample, error) {
	var examples []domain.UserExample

	seen := make(map[string]struct{})

	for _, datasetID := range datasetIDs {
		datasetPath := DatasetPath(dir, datasetID)
		botsPath := BotsPath(dir, datasetID)

		if _, err := os.Stat(datasetPath); err != nil {
			return nil, fmt.Errorf("%w: dataset file %s", errors.ErrMissingResource, datasetPath)
		}

		if _, err := os.Stat(botsPath); err != nil {
			return nil, fmt.Errorf("%w: bot label file %s", errors.ErrMissingResource, botsPath)
		}

		ds, err := ReadDataset(datasetPath)
		if err != nil {
			return nil, err
		}

		botIDs, err := ReadBotIDs(botsPath)
		if err != nil {
			return nil, err
		}

		lang := canonicalLang(ds.Lang)

		postsByAuthor := groupPostsByAuthor(ds.Posts)

		for _, user := range ds.Users {
			if _, dup := seen[user.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate user id across datasets: %s", errors.ErrDataIntegrity, user.ID)
			}

			seen[user.ID] = struct{}{}

			label := domain.LabelHuman
			if _, isBot := botIDs[user.ID]; isBot {
				label = domain.LabelBot
			}

			userPosts := postsByAuthor[user.ID]

			examples = append(examples, domain.UserExample{
				UserID:        user.ID,
				DatasetID:     datasetID,
				Lang:          lang,
				Label:         label,
				FullPostCount: len(userPosts),
				PostCountUsed: len(userPosts),
				UserPrompt:    BuildUserPrompt(user, userPosts),
			})
		}

		observability.ExamplesLoaded.WithLabelValues(strconv.Itoa(datasetID)).Set(float64(len(ds.Users)))
	}

	sort.Slice(examples, func(i, j int) bool {
		return examples[i].UserID < examples[j].UserID
	})

	return examples, nil
}

// groupPostsByAuthor buckets posts per author and sorts each bucket by the
// lexicographic created_at timestamp, making the rendered prompt deterministic.
func groupPostsByAuthor(posts []Post) map[string][]Post {
	byAuthor := make(map[string][]Post)

	for _, post := range posts {
		byAuthor[post.AuthorID] = append(byAuthor[post.AuthorID], post)
	}

	for _, authorPosts := range byAuthor {
		sort.SliceStable(authorPosts, func(i, j int) bool {
			return authorPosts[i].CreatedAt < authorPosts[j].CreatedAt
		})
	}

	return byAuthor
}

// canonicalLang normalizes the dataset language tag before it is used as a
// stratification bucket key. Unparseable tags are kept verbatim.
func canonicalLang(raw string) string {
	if raw == "" {
		return "unknown"
	}

	tag, err := language.Parse(raw)
	if err != nil {
		return raw
	}

	return tag.String()
}

// FilterByDataset keeps only examples whose source dataset is in datasetIDs.
func FilterByDataset(examples []domain.UserExample, datasetIDs []int) []domain.UserExample {
	allowed := make(map[int]struct{}, len(datasetIDs))
	for _, id := range datasetIDs {
		allowed[id] = struct{}{}
	}

	filtered := make([]domain.UserExample, 0, len(examples))

	for _, example := range examples {
		if _, ok := allowed[example.DatasetID]; ok {
			filtered = append(filtered, example)
		}
	}

	return filtered
}
