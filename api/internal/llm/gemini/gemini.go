package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"exam-bot/api/internal/llm"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	callTimeout = 60 * time.Second
	maxAttempts = 3
)

type Engine struct {
	apiKey string
	model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		apiKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string  { return "gemini" }
func (e *Engine) Model() string { return e.model }

func (e *Engine) Complete(ctx context.Context, msgs []llm.Message, temperature float32) (string, error) {
	if e.apiKey == "" {
		return "", fmt.Errorf("%w: GEMINI_API_KEY is empty", llm.ErrUnavailable)
	}
	system, history, last, err := split(msgs)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.apiKey))
	if err != nil {
		return "", fmt.Errorf("%w: %v", llm.ErrUnavailable, err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(temperature)}
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := m.StartChat()
	cs.History = history

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := cs.SendMessage(ctx, genai.Text(last))
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", llm.ErrUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}
		txt := strings.TrimSpace(firstText(resp))
		if txt == "" {
			return "", fmt.Errorf("%w: empty completion", llm.ErrUnavailable)
		}
		return txt, nil
	}
	return "", fmt.Errorf("%w: %v", llm.ErrUnavailable, lastErr)
}

// split maps role-tagged messages onto the genai chat shape: system texts
// join into the system instruction, the trailing user message is sent, the
// rest becomes chat history.
func split(msgs []llm.Message) (system string, history []*genai.Content, last string, err error) {
	var sys []string
	var conv []llm.Message
	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			sys = append(sys, m.Text)
			continue
		}
		conv = append(conv, m)
	}
	if len(conv) == 0 || conv[len(conv)-1].Role != llm.RoleUser {
		return "", nil, "", fmt.Errorf("gemini: message list must end with a user message")
	}
	for _, m := range conv[:len(conv)-1] {
		role := "user"
		if m.Role == llm.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}
	return strings.Join(sys, "\n\n"), history, conv[len(conv)-1].Text, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok && strings.TrimSpace(string(t)) != "" {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
