package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Placeholders rendered for absent optional profile fields.
const (
	placeholderUnknown = "?"
	placeholderNone    = "(none)"
)

// BuildUserPrompt renders a user's profile fields and chronologically sorted
// posts into the prompt text shown to the classifier. Deterministic given the
// same raw input.
func BuildUserPrompt(user User, posts []Post) string {
	profile := []string{
		"User ID: " + user.ID,
		"Username: " + stringOr(user.Username, placeholderUnknown),
		"Name: " + stringOr(user.Name, placeholderUnknown),
		"Description: " + nonEmptyOr(user.Description, placeholderNone),
		"Location: " + nonEmptyOr(user.Location, placeholderNone),
		"Tweet count: " + intOr(user.TweetCount, placeholderUnknown),
		"Z-score (posting activity deviation from average): " + floatOr(user.ZScore, placeholderUnknown),
	}

	postLines := make([]string, 0, len(posts))
	for _, post := range posts {
		postLines = append(postLines, fmt.Sprintf("[%s] [id:%s] [lang:%s] %s", post.CreatedAt, post.ID, post.Lang, post.Text))
	}

	if len(postLines) == 0 {
		postLines = append(postLines, "(no posts)")
	}

	return strings.Join(profile, "\n") + "\n\nPosts:\n" + strings.Join(postLines, "\n")
}

func stringOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}

	return *value
}

func nonEmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

func intOr(value *int64, fallback string) string {
	if value == nil {
		return fallback
	}

	return strconv.FormatInt(*value, 10)
}

func floatOr(value *float64, fallback string) string {
	if value == nil {
		return fallback
	}

	return strconv.FormatFloat(*value, 'g', -1, 64)
}
