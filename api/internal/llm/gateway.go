// Package llm defines the chat-completion boundary between the exam
// workflow and whatever model backend is configured.
package llm

import (
	"context"
	"errors"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role
	Text string
}

// ErrUnavailable marks transport, auth and quota failures. Callers surface
// it as a retryable condition and must not mutate session state around it.
var ErrUnavailable = errors.New("llm: model unavailable")

// Gateway is one blocking completion call. Output is not reproducible
// across retries even at low temperature; callers must not assume
// byte-identical text.
type Gateway interface {
	Name() string
	Model() string
	Complete(ctx context.Context, msgs []Message, temperature float32) (string, error)
}
