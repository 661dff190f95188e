package Dispatch

import (
	"context"
	"fmt"

	"Taskflow/Models"

	"github.com/slack-go/slack"
	"golang.org/x/exp/slices"
)

// SlackPoster is satisfied by *slack.Client.
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackSink mirrors selected notice types into a team channel.
type SlackSink struct {
	client  SlackPoster
	channel string
	types   []Models.NotificationType
}

// NewSlackSink posts notices of the given types to channel. With no types
// it only forwards project notices.
func NewSlackSink(client SlackPoster, channel string, types ...Models.NotificationType) *SlackSink {
	if len(types) == 0 {
		types = []Models.NotificationType{Models.NotifyProject}
	}
	return &SlackSink{client: client, channel: channel, types: types}
}

func (s *SlackSink) Notify(ctx context.Context, n Notice) error {
	if !slices.Contains(s.types, n.Type) {
		return nil
	}
	text := fmt.Sprintf("*%s*\n%s", n.Title, n.Message)
	if n.ReferenceID != "" {
		text += fmt.Sprintf(" (`%s`)", n.ReferenceID)
	}
	_, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("failed to post to slack: %w", err)
	}
	return nil
}
