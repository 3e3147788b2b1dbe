package ports

import "context"

// EventPublisher notifies other instances about session lifecycle events.
type EventPublisher interface {
	PublishLogin(ctx context.Context, wallet string) error
	PublishLogout(ctx context.Context, wallet, tokenID string) error
}
