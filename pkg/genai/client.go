package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxlab/interviewd/pkg/telemetry"
)

const (
	defaultAttempts = 3
	defaultTimeout  = 30 * time.Second
)

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithAttempts bounds the retry loop. Attempts below 1 are ignored.
func WithAttempts(n int) ClientOption {
	return func(c *Client) {
		if n >= 1 {
			c.attempts = n
		}
	}
}

// WithCallTimeout caps each provider attempt. Zero disables the cap.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.callTimeout = d }
}

// WithPromptStore swaps the prompt template store.
func WithPromptStore(store *PromptStore) ClientOption {
	return func(c *Client) {
		if store != nil {
			c.prompts = store
		}
	}
}

// withSleep replaces the backoff sleeper. Test hook.
func withSleep(sleep func(context.Context, time.Duration) error) ClientOption {
	return func(c *Client) { c.sleep = sleep }
}

// Client wraps a Provider with prompt construction, schema validation, and
// the retry policy for rate-limit failures. The four exported methods absorb
// failures into fixed default payloads so callers always branch on a
// well-formed structure; the typed failure is logged, never raised past this
// boundary.
type Client struct {
	provider    Provider
	prompts     *PromptStore
	attempts    int
	callTimeout time.Duration
	sleep       func(context.Context, time.Duration) error
	jitter      func() float64
}

// NewClient builds a generation client around provider.
func NewClient(provider Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider:    provider,
		prompts:     NewPromptStore(),
		attempts:    defaultAttempts,
		callTimeout: defaultTimeout,
		sleep:       sleepCtx,
		jitter:      rand.Float64,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnalyzeResume extracts the skill matrix. Returns the zero Analysis when
// the upstream call or its schema validation fails.
func (c *Client) AnalyzeResume(ctx context.Context, resumeText, jdText string) Analysis {
	var out Analysis
	data := struct{ ResumeText, JDText string }{resumeText, jdText}
	if err := c.generate(ctx, KindAnalysis, data, &out); err != nil {
		log.Printf("genai: analysis failed: %v", err)
		return Analysis{}
	}
	return out
}

// GenerateQuestions produces count questions from the analysis context.
// Returns an empty slice on failure.
func (c *Client) GenerateQuestions(ctx context.Context, analysis Analysis, count int) []QuestionDraft {
	contextJSON, err := json.Marshal(analysis)
	if err != nil {
		log.Printf("genai: marshal analysis context: %v", err)
		return nil
	}
	var out []QuestionDraft
	data := struct {
		Count   int
		Context string
	}{count, string(contextJSON)}
	if err := c.generate(ctx, KindQuestions, data, &out); err != nil {
		log.Printf("genai: question generation failed: %v", err)
		return nil
	}
	for _, q := range out {
		if verr := q.validate(); verr != nil {
			log.Printf("genai: question generation failed: %v", verr)
			return nil
		}
	}
	if len(out) > count && count > 0 {
		out = out[:count]
	}
	return out
}

// EvaluateAnswer scores one answer against its question. Returns the fixed
// zero-scored evaluation on failure.
func (c *Client) EvaluateAnswer(ctx context.Context, questionText, answerText, difficulty string) Evaluation {
	var out Evaluation
	data := struct{ QuestionText, AnswerText, Difficulty string }{questionText, answerText, difficulty}
	if err := c.generate(ctx, KindEvaluation, data, &out); err != nil {
		log.Printf("genai: evaluation failed: %v", err)
		return fallbackEvaluation()
	}
	return out
}

// GenerateReport summarizes the full response history. Returns the fixed
// placeholder report on failure so the client of a session always receives a
// terminal payload.
func (c *Client) GenerateReport(ctx context.Context, history []ResponseSummary) Report {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		log.Printf("genai: marshal history: %v", err)
		return fallbackReport()
	}
	var out Report
	data := struct{ History string }{string(historyJSON)}
	if err := c.generate(ctx, KindReport, data, &out); err != nil {
		log.Printf("genai: report failed: %v", err)
		return fallbackReport()
	}
	return out
}

// generate renders the prompt, runs the provider with the retry policy, and
// deserializes the raw output into out. Only FailureRateLimited is retried;
// exhausting the budget converts it to FailureUpstreamUnavailable.
func (c *Client) generate(ctx context.Context, kind Kind, data, out any) error {
	prompt, err := c.prompts.Render(kind, data)
	if err != nil {
		return err
	}

	ctx, span := telemetry.StartSpan(ctx, "genai.generate", trace.WithAttributes(
		attribute.String("genai.kind", string(kind)),
		attribute.String("genai.provider", c.provider.Name()),
	))
	raw, err := c.callWithRetry(ctx, Request{System: systemPrompt, Prompt: prompt})
	telemetry.EndSpan(span, err)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return NewFailure(FailureMalformedResponse, fmt.Errorf("%s: %w", kind, err))
	}
	return nil
}

func (c *Client) callWithRetry(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		raw, err := c.call(ctx, req)
		if err == nil {
			return raw, nil
		}
		if !IsRateLimited(err) {
			return "", err
		}
		lastErr = err

		// 2^attempt seconds plus a uniform fraction of a second. The final
		// attempt's failure is not followed by a wait.
		if attempt == c.attempts-1 {
			break
		}
		wait := time.Duration((float64(int64(1)<<attempt) + c.jitter()) * float64(time.Second))
		log.Printf("genai: rate limited, retrying in %s (attempt %d/%d)", wait, attempt+1, c.attempts)
		if err := c.sleep(ctx, wait); err != nil {
			return "", NewFailure(FailureUpstreamUnavailable, err)
		}
	}
	return "", NewFailure(FailureUpstreamUnavailable, fmt.Errorf("retry budget exhausted: %w", lastErr))
}

func (c *Client) call(ctx context.Context, req Request) (string, error) {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}
	return c.provider.Generate(ctx, req)
}

// sleepCtx waits for d but aborts early when ctx is done, so a disconnected
// session never holds its worker in a dead backoff.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
