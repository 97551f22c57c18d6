package generator

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn of a model call.
type Message struct {
	Role    string
	Content string
}

type Generator interface {
	Generate(ctx context.Context, messages []Message, opts ...GenerateOption) (string, error)
}
