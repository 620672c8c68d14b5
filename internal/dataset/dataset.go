// Package dataset loads labeled user examples from on-disk dataset file
// pairs: a JSON document with users and posts, and a plain-text bot-id list.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dataset is the raw JSON document for one source corpus.
type Dataset struct {
	Lang  string `json:"lang"`
	Users []User `json:"users"`
	Posts []Post `json:"posts"`
}

// User is one raw account record. Optional profile fields are pointers so a
// missing field can be rendered with a fixed placeholder.
type User struct {
	ID          string   `json:"id"`
	Username    *string  `json:"username"`
	Name        *string  `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	TweetCount  *int64   `json:"tweet_count"`
	ZScore      *float64 `json:"z_score"`
}

// Post is one raw post record.
type Post struct {
	ID        string `json:"id"`
	AuthorID  string `json:"author_id"`
	CreatedAt string `json:"created_at"`
	Lang      string `json:"lang"`
	Text      string `json:"text"`
}

// DatasetPath returns the path of the posts&users JSON document for a dataset id.
func DatasetPath(dir string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("dataset.posts&users.%d.json", id))
}

// BotsPath returns the path of the bot-id list for a dataset id.
func BotsPath(dir string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("dataset.bots.%d.txt", id))
}

// ReadDataset parses the posts&users JSON document at path.
func ReadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset file: %w", err)
	}

	ds := &Dataset{}
	if err := json.Unmarshal(data, ds); err != nil {
		return nil, fmt.Errorf("parsing dataset file %s: %w", path, err)
	}

	return ds, nil
}

// ReadBotIDs reads one bot user-id per non-empty line, trimming whitespace.
func ReadBotIDs(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading bot-id file: %w", err)
	}
	defer f.Close()

	ids := make(map[string]struct{})

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			ids[id] = struct{}{}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning bot-id file %s: %w", path, err)
	}

	return ids, nil
}
