package domain

// Label is a ground-truth or predicted account classification.
type Label string

// The two mutually exclusive account labels.
const (
	LabelBot   Label = "BOT"
	LabelHuman Label = "HUMAN"
)

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn in a model transcript.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserExample is one labeled account: rendered profile + posts plus its
// ground-truth label. Constructed once during ingestion and never mutated.
type UserExample struct {
	UserID        string
	DatasetID     int
	Lang          string
	Label         Label
	FullPostCount int
	PostCountUsed int
	UserPrompt    string
}

// IsBot reports whether the example's ground-truth label is BOT.
func (e UserExample) IsBot() bool {
	return e.Label == LabelBot
}

// SFTRecord is a three-turn fine-tuning transcript: system prompt, rendered
// user, and the ground-truth label as the assistant turn.
type SFTRecord struct {
	Messages []ChatMessage `json:"messages"`
}

// EvalRecord is a two-turn evaluation transcript (no assistant turn) carrying
// the example's identifying metadata so results can be scored per dataset.
type EvalRecord struct {
	UserID        string        `json:"user_id"`
	DatasetID     int           `json:"dataset_id"`
	Lang          string        `json:"lang"`
	Label         Label         `json:"label"`
	FullPostCount int           `json:"full_post_count"`
	PostCountUsed int           `json:"post_count_used"`
	Messages      []ChatMessage `json:"messages"`
}

// ExampleMeta is the metadata-only projection of a UserExample, persisted
// alongside split files for auditing.
type ExampleMeta struct {
	UserID        string `json:"user_id"`
	DatasetID     int    `json:"dataset_id"`
	Lang          string `json:"lang"`
	Label         Label  `json:"label"`
	FullPostCount int    `json:"full_post_count"`
	PostCountUsed int    `json:"post_count_used"`
}

// ToSFTRecord projects the example into a fine-tuning transcript.
func (e UserExample) ToSFTRecord() SFTRecord {
	return SFTRecord{
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: SystemPrompt},
			{Role: RoleUser, Content: e.UserPrompt},
			{Role: RoleAssistant, Content: string(e.Label)},
		},
	}
}

// ToEvalRecord projects the example into an evaluation transcript.
func (e UserExample) ToEvalRecord() EvalRecord {
	return EvalRecord{
		UserID:        e.UserID,
		DatasetID:     e.DatasetID,
		Lang:          e.Lang,
		Label:         e.Label,
		FullPostCount: e.FullPostCount,
		PostCountUsed: e.PostCountUsed,
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: SystemPrompt},
			{Role: RoleUser, Content: e.UserPrompt},
		},
	}
}

// ToMeta projects the example into its metadata-only form.
func (e UserExample) ToMeta() ExampleMeta {
	return ExampleMeta{
		UserID:        e.UserID,
		DatasetID:     e.DatasetID,
		Lang:          e.Lang,
		Label:         e.Label,
		FullPostCount: e.FullPostCount,
		PostCountUsed: e.PostCountUsed,
	}
}
