package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/userdesk/admin-console/internal/core/domain"
)

// DefaultSessionChannel is the pub/sub channel carrying session events.
const DefaultSessionChannel = "console:session_events"

// SessionPublisher publishes session events as JSON on a pub/sub channel.
type SessionPublisher struct {
	client  *redis.Client
	channel string
}

func NewSessionPublisher(client *redis.Client, channel string) *SessionPublisher {
	if channel == "" {
		channel = DefaultSessionChannel
	}
	return &SessionPublisher{client: client, channel: channel}
}

func (p *SessionPublisher) Publish(ctx context.Context, event domain.SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode session event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish session event: %w", err)
	}
	return nil
}

// SessionSubscriber receives session events from the pub/sub channel.
type SessionSubscriber struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

func NewSessionSubscriber(client *redis.Client, channel string, log zerolog.Logger) *SessionSubscriber {
	if channel == "" {
		channel = DefaultSessionChannel
	}
	return &SessionSubscriber{client: client, channel: channel, log: log}
}

// Subscribe starts receiving events. Messages are delivered in the order Redis
// delivers them; undecodable payloads are logged and skipped. The returned
// channel is closed once release is called or ctx is cancelled.
func (s *SessionSubscriber) Subscribe(ctx context.Context) (<-chan domain.SessionEvent, func(), error) {
	sub := s.client.Subscribe(ctx, s.channel)
	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", s.channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan domain.SessionEvent)
	msgs := sub.Channel()

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event domain.SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping undecodable session event")
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, cancel, nil
}
