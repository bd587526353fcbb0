package domain

type Author string

const (
	User   Author = "user"
	System Author = "system"
)

type Prompt struct {
	Prompt string
	Author Author
	Model  Model
}

// Message is an inbound chat message as seen by the dispatcher, independent of the network it arrived on.
type Message struct {
	ID       string
	ChatID   string
	SenderID string
	// FromMe is set when the message was sent by the bot's own session.
	FromMe bool
	// HasContent is false for protocol-level events that carry no message payload.
	HasContent bool
	Text       string
	QuotedText string
}

// ParsedCommand is the command token and its arguments, split from a prefixed message.
type ParsedCommand struct {
	Command string
	Args    []string
}

type ModelResponse struct {
	Response string
	Metadata ResponseMetadata
}

type Model struct {
	Keyword    string `json:"keyword"`
	Identifier string `json:"identifier"`
}

type ResponseMetadata struct {
	Model            string
	CompletionTokens int
	TotalTokens      int
}
