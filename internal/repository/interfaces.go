package repository

import (
	"context"
	"time"

	"github.com/kasinadhsarma/vectorshift/internal/domain/connector"
)

// StateStore persists short-lived pending authorizations with a TTL. One
// entry exists per (provider, org, user) key; saving again overwrites it.
type StateStore interface {
	SaveState(ctx context.Context, key string, data connector.PendingAuthorization, ttl time.Duration) error
	// TakeState atomically reads and deletes the entry. Two concurrent
	// callers for the same key observe exactly one non-nil result. A nil
	// result with nil error means absent (expired, consumed, or never
	// created).
	TakeState(ctx context.Context, key string) (*connector.PendingAuthorization, error)
	DeleteState(ctx context.Context, key string) error
}

// CredentialRepository is the durable store for token bundles. Save is a
// full-bundle replace so a rotated refresh token can never be resurrected by
// a partial write.
type CredentialRepository interface {
	Save(ctx context.Context, bundle connector.CredentialBundle) error
	// Get returns nil, nil when no bundle exists for the key.
	Get(ctx context.Context, provider, orgID, userID string) (*connector.CredentialBundle, error)
	Delete(ctx context.Context, provider, orgID, userID string) error
}
