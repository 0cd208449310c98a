package port

import (
	"context"
)

// DetailFetcher performs a GET against a fully resolved URL and returns the body.
// Non-2xx responses are returned as errors.
type DetailFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DetailRequest identifies the object a detail payload was fetched for
type DetailRequest struct {
	DeliveryID string
	MerchantID string
	ObjectRef  string
	UpdateType string
}

// DetailConsumer receives detail payloads fetched for webhook updates
type DetailConsumer interface {
	Consume(ctx context.Context, req DetailRequest, body []byte) error
}

// DetailConsumerFunc adapts a function to DetailConsumer
type DetailConsumerFunc func(ctx context.Context, req DetailRequest, body []byte) error

// Consume implements DetailConsumer
func (f DetailConsumerFunc) Consume(ctx context.Context, req DetailRequest, body []byte) error {
	return f(ctx, req, body)
}
