package service

import (
	"context"

	"migration-web/internal/models"
)

// DeliveryClient pushes one mapped record to the destination API.
type DeliveryClient interface {
	Deliver(ctx context.Context, dest models.DestinationConfig, record models.Record) error
}

// NovaTabClient is the NovaTab delivery integration point. The real API is
// not wired up yet; delivery reports success without a network call, the same
// way the connection test does.
type NovaTabClient struct{}

func NewNovaTabClient() *NovaTabClient {
	return &NovaTabClient{}
}

func (c *NovaTabClient) Deliver(ctx context.Context, dest models.DestinationConfig, record models.Record) error {
	// TODO: POST record to dest.Endpoint with dest.APIKey once the NovaTab
	// ingest API is available.
	return nil
}

// TestConnection probes a stored configuration. Stubbed until the NovaTab
// ingest API is available.
func (c *NovaTabClient) TestConnection(ctx context.Context, endpoint, apiKey string) error {
	return nil
}
