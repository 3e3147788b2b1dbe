// Package events publishes session lifecycle events so that other instances
// and interested subscribers (profile bootstrap, audit) can react.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/cardpass/gatekeeper/ports"
)

const (
	LoginTopic  = "gatekeeper.login"
	LogoutTopic = "gatekeeper.logout"
)

// LoginEvent is emitted after a successful challenge verification.
type LoginEvent struct {
	Wallet string `json:"wallet"`
}

// LogoutEvent is emitted when a refresh token is revoked by logout.
type LogoutEvent struct {
	Wallet  string `json:"wallet"`
	TokenID string `json:"token_id"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event.
func (p *WatermillPublisher) PublishLogin(ctx context.Context, wallet string) error {
	return p.publish(LoginTopic, LoginEvent{Wallet: wallet})
}

// PublishLogout publishes a logout event.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, wallet, tokenID string) error {
	return p.publish(LogoutTopic, LogoutEvent{Wallet: wallet, TokenID: tokenID})
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
