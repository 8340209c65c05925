package domain

// Chat roles as expected by OpenAI-compatible completion APIs.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the conversation transcript.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
