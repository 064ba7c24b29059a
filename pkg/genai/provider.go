package genai

import (
	"context"
	"strings"
)

// Request is a single structured-generation call. The prompt instructs the
// model to reply with a bare JSON document matching the prompt kind's schema.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Provider turns a prompt into raw model output. Implementations map their
// SDK's transport errors onto the Failure taxonomy; in particular HTTP 429
// and quota errors must surface as FailureRateLimited so the client's retry
// loop can classify them structurally.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// extractJSON strips markdown code fences that some models wrap around JSON
// output despite being asked for a bare document.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
