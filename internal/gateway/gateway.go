// Package gateway wraps the language model behind a single stateless call.
// The full turn history is supplied on every invocation; nothing is retained
// between calls. Transport failures are retried with bounded exponential
// backoff before surfacing as ErrUpstreamUnavailable.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/danishmustafa86/aidlink/pkg/formatting"
)

// Turn is one exchange in a conversation history.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Conversation roles.
const (
	RoleCitizen   = "citizen"
	RoleAssistant = "assistant"
)

// System is the stateless completion boundary. Complete sends instructions
// plus the ordered history and returns the raw model reply.
type System interface {
	Complete(ctx context.Context, instructions string, history []Turn) (string, error)
}

// Config bounds gateway calls: per-call timeout, attempt cap, and the base
// delay for exponential backoff between attempts.
type Config struct {
	MaxAttempts  int
	CallTimeout  time.Duration
	RetryBackoff time.Duration
}

type system struct {
	agent  gaconfig.AgentConfig
	cfg    Config
	logger *slog.Logger
}

// New creates a gateway backed by a go-agents chat model.
func New(agentCfg gaconfig.AgentConfig, cfg Config, logger *slog.Logger) System {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	return &system{
		agent:  agentCfg,
		cfg:    cfg,
		logger: logger.With("system", "gateway"),
	}
}

func (s *system) Complete(ctx context.Context, instructions string, history []Turn) (string, error) {
	prompt := composePrompt(instructions, history)

	var lastErr error
	for attempt := range s.cfg.MaxAttempts {
		if attempt > 0 {
			delay := s.cfg.RetryBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, ctx.Err())
			case <-time.After(delay):
			}
		}

		content, err := s.call(ctx, prompt)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		s.logger.Warn("completion attempt failed",
			"attempt", attempt+1,
			"error", err,
		)
	}

	return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, lastErr)
}

func (s *system) call(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	a, err := agent.New(&s.agent)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	resp, err := a.Chat(callCtx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat call: %w", err)
	}

	return resp.Content(), nil
}

// Complete sends instructions plus history through sys and parses the reply
// against the response contract T. A reply that cannot be parsed against the
// contract surfaces ErrMalformedResponse; the caller decides whether to re-ask.
func Complete[T any](ctx context.Context, sys System, instructions string, history []Turn) (T, error) {
	var zero T

	raw, err := sys.Complete(ctx, instructions, history)
	if err != nil {
		return zero, err
	}

	parsed, err := formatting.Parse[T](raw)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return parsed, nil
}

func composePrompt(instructions string, history []Turn) string {
	var sb strings.Builder
	sb.WriteString(instructions)

	if len(history) > 0 {
		sb.WriteString("\n\nConversation so far:\n")
		for _, t := range history {
			sb.WriteString(t.Role)
			sb.WriteString(": ")
			sb.WriteString(t.Text)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
