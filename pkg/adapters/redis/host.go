package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// ErrNoSubscriber is returned by a strict Host when nobody received a call.
var ErrNoSubscriber = errors.New("no subscriber received the update call")

// Host implements ports.Host by publishing every update call as JSON on a
// Redis channel. Remote renderers subscribe to the channel and apply the
// patches to their live instance.
type Host struct {
	client  *backend.Client
	channel string
	strict  bool
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithStrictDelivery makes Update fail when no subscriber is listening.
func WithStrictDelivery() HostOption {
	return func(h *Host) {
		h.strict = true
	}
}

// NewHost publishes the calls of one page on channel.
func NewHost(client *backend.Client, channel string, opts ...HostOption) *Host {
	h := &Host{client: client, channel: channel}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Channel returns the channel the host publishes on.
func (h *Host) Channel() string {
	return h.channel
}

// Update publishes call.
func (h *Host) Update(ctx context.Context, call domain.HostCall) error {
	data, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("failed to marshal host call: %w", err)
	}
	n, err := h.client.Publish(ctx, h.channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish host call: %w", err)
	}
	if h.strict && n == 0 {
		return ErrNoSubscriber
	}
	return nil
}

// Subscribe listens on channel and decodes every published call. The returned
// channel is closed once ctx is done or the subscription fails.
func Subscribe(ctx context.Context, client *backend.Client, channel string) (<-chan domain.HostCall, error) {
	sub := client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan domain.HostCall)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var call domain.HostCall
				if err := json.Unmarshal([]byte(msg.Payload), &call); err != nil {
					continue
				}
				select {
				case out <- call:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
