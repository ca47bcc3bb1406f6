package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/mcwarden/mcwarden/internal/logging"
)

// ErrDisabled is returned when the responder was built without an API key.
var ErrDisabled = errors.New("ai responder is disabled")

// Responder answers chat messages through the configured generative model.
type Responder struct {
	client      *genai.Client
	modelName   string
	registry    *Registry
	personality string
	memory      *Memory
	contextFn   func() string
	logger      *slog.Logger
}

// NewResponder creates a responder. An empty apiKey yields a disabled
// responder whose Respond always returns ErrDisabled; the daemon still runs.
func NewResponder(ctx context.Context, apiKey, modelName, personality string, registry *Registry) (*Responder, error) {
	r := &Responder{
		modelName:   modelName,
		registry:    registry,
		personality: personality,
		memory:      NewMemory(),
		logger:      logging.GetLogger("ai"),
	}
	if apiKey == "" {
		r.logger.Info("AI responder disabled, no API key configured")
		return r, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create generative model client: %w", err)
	}
	r.client = client
	r.logger.Info("AI responder ready", "model", modelName, "personality", personality)
	return r, nil
}

// Close releases the model client.
func (r *Responder) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Enabled reports whether a model client is configured.
func (r *Responder) Enabled() bool {
	return r.client != nil
}

// Memory exposes the conversation history.
func (r *Responder) Memory() *Memory {
	return r.memory
}

// SetContextProvider registers a function whose output is prepended to each
// prompt, typically the live server state and mod inventory.
func (r *Responder) SetContextProvider(fn func() string) {
	r.contextFn = fn
}

// SetPersonality switches the active personality for subsequent replies.
func (r *Responder) SetPersonality(name string) {
	r.personality = name
}

// Personality returns the active personality name.
func (r *Responder) Personality() string {
	return r.personality
}

// Respond generates a reply to the author's message. On a model failure it
// returns one of the personality's fallback lines together with the error so
// the caller can both show something and log the cause.
func (r *Responder) Respond(ctx context.Context, author, message string) (string, error) {
	if r.client == nil {
		return "", ErrDisabled
	}

	persona := r.registry.Get(r.personality)
	prompt := r.buildPrompt(persona, author, message)

	model := r.client.GenerativeModel(r.modelName)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		r.logger.Warn("Model call failed", "error", err)
		return fallbackLine(persona), fmt.Errorf("generate content: %w", err)
	}

	reply := extractText(resp)
	if reply == "" {
		r.logger.Warn("Model returned no usable text")
		return fallbackLine(persona), errors.New("empty model response")
	}

	r.memory.Add(author, message, reply)
	return reply, nil
}

// buildPrompt assembles the system prompt, the recent transcript and the
// new message into one text prompt.
func (r *Responder) buildPrompt(persona Personality, author, message string) string {
	var sb strings.Builder
	sb.WriteString(persona.SystemPrompt)
	sb.WriteString("\n\n")
	if r.contextFn != nil {
		if state := r.contextFn(); state != "" {
			sb.WriteString("Current server state:\n")
			sb.WriteString(state)
			sb.WriteString("\n\n")
		}
	}
	if transcript := r.memory.transcript(); transcript != "" {
		sb.WriteString("Conversation so far:\n")
		sb.WriteString(transcript)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "%s: %s\nassistant:", author, message)
	return sb.String()
}

// extractText flattens the first candidate's text parts.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}

func fallbackLine(persona Personality) string {
	if len(persona.Fallbacks) == 0 {
		return "Sorry, I can't answer right now."
	}
	return persona.Fallbacks[rand.Intn(len(persona.Fallbacks))]
}
