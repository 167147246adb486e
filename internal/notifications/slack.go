package notifications

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackConfig holds the authority queue channel settings.
type SlackConfig struct {
	WebhookURL string
}

type slackChannel struct {
	cfg SlackConfig
}

// NewSlackChannel creates the authority queue channel backed by a Slack
// incoming webhook. The recipient ref names the authority queue and is
// rendered into the message so one webhook can serve every category.
func NewSlackChannel(cfg SlackConfig) Channel {
	return &slackChannel{cfg: cfg}
}

func (c *slackChannel) Send(ctx context.Context, recipientRef string, p Payload) error {
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("[%s] %s\n%s", recipientRef, p.Subject, p.Body),
	}

	if err := slack.PostWebhookContext(ctx, c.cfg.WebhookURL, msg); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}
