// Package dashboard aggregates connection status across providers for the
// front end. It is a read-only consumer of the connector facade and never
// exposes token material.
package dashboard

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kasinadhsarma/vectorshift/internal/domain/connector"
	"github.com/kasinadhsarma/vectorshift/internal/integration"
	connectorsvc "github.com/kasinadhsarma/vectorshift/internal/service/connector"
)

// ProviderStatus is the per-provider connection view.
type ProviderStatus struct {
	Provider    string     `json:"provider"`
	DisplayName string     `json:"displayName"`
	IsConnected bool       `json:"isConnected"`
	Status      string     `json:"status"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// Service fans status and item reads out across the registered providers.
type Service struct {
	connectors connectorsvc.Service
	sources    map[string]integration.Source
	logger     *zap.Logger
}

// NewService wires the dashboard aggregation service.
func NewService(connectors connectorsvc.Service, sources []integration.Source, logger *zap.Logger) *Service {
	byName := make(map[string]integration.Source, len(sources))
	for _, src := range sources {
		byName[src.Name()] = src
	}
	return &Service{connectors: connectors, sources: byName, logger: logger}
}

// Status reports the connection state for one provider. A lazily triggered
// refresh happens inside GetCredential; a revoked connection reads as
// disconnected, not as an error.
func (s *Service) Status(ctx context.Context, providerName, userID, orgID string) (*ProviderStatus, error) {
	desc, err := s.descriptor(providerName)
	if err != nil {
		return nil, err
	}

	status := &ProviderStatus{Provider: desc.Name, DisplayName: desc.DisplayName}
	bundle, err := s.connectors.GetCredential(ctx, desc.Name, userID, orgID)
	switch {
	case err == nil:
		status.IsConnected = true
		status.Status = "active"
		connectedAt := bundle.ConnectedAt
		status.ConnectedAt = &connectedAt
		status.ExpiresAt = bundle.ExpiresAt
	case errors.Is(err, connector.ErrNotConnected):
		status.Status = "inactive"
	default:
		s.log().Warn("provider status check failed",
			zap.String("provider", desc.Name),
			zap.String("org_id", orgID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		status.Status = "error"
	}
	return status, nil
}

// Overview returns the connection matrix for a user across every configured
// provider.
func (s *Service) Overview(ctx context.Context, userID, orgID string) ([]ProviderStatus, error) {
	descriptors := s.connectors.Providers()
	out := make([]ProviderStatus, 0, len(descriptors))
	for _, desc := range descriptors {
		status, err := s.Status(ctx, desc.Name, userID, orgID)
		if err != nil {
			return nil, err
		}
		out = append(out, *status)
	}
	return out, nil
}

// Items loads the normalized records from one provider's data adapter.
func (s *Service) Items(ctx context.Context, providerName, userID, orgID string) ([]integration.Item, error) {
	src, ok := s.sources[providerName]
	if !ok {
		return nil, connector.ErrProviderNotFound
	}
	return src.Items(ctx, userID, orgID)
}

func (s *Service) descriptor(providerName string) (*connector.Descriptor, error) {
	for _, desc := range s.connectors.Providers() {
		if desc.Name == providerName {
			return desc, nil
		}
	}
	return nil, connector.ErrProviderNotFound
}

func (s *Service) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
