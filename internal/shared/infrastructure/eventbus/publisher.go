package eventbus

import "context"

// Publisher hands an encoded event envelope to the broker under its
// routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}
