package ai

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents one normalized request to an LLM backend.
type ChatRequest struct {
	Model    string    `json:"model,omitempty"` // Model name or identifier
	Messages []Message `json:"messages"`        // Full conversation, system prompt included

	// Args carries sampling parameters (temperature, max_tokens, top_p, ...)
	// forwarded verbatim to the backend. Each adapter maps the keys it knows
	// onto its SDK request and ignores the rest.
	Args map[string]any `json:"args,omitempty"`

	// Stream requests incremental delivery. The caller decides; adapters for
	// non-text capabilities (image generation) may ignore it.
	Stream bool `json:"stream,omitempty"`
}

// Message represents a single role-tagged unit in a conversation.
// Content carries plain text; Parts, when non-empty, carries multipart
// content (text fragments and opaque attachment references) and takes
// precedence over Content.
type Message struct {
	Role    Role          `json:"role"`
	Content string        `json:"content,omitempty"`
	Parts   []ContentPart `json:"parts,omitempty"`
}

// ContentPart is one element of a multipart message: either inline text or
// an opaque attachment reference (URL or data URI) that the backend resolves.
type ContentPart struct {
	Text          string `json:"text,omitempty"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

// Role represents the role of a message; compatible with string.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SystemMessage builds a system-role message from plain text.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message from plain text.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message from plain text.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents the terminal payload of one backend call,
// normalized across backend families.
type ChatResponse struct {
	ID           string `json:"id,omitempty"`
	Model        string `json:"model,omitempty"`
	Created      int64  `json:"created,omitempty"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`

	// Images holds generated image references (URLs or base64 payloads)
	// when the call targeted an image model.
	Images []string `json:"images,omitempty"`
}
