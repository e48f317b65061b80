package connector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	oauthadapter "github.com/kasinadhsarma/vectorshift/internal/adapter/oauth"
	"github.com/kasinadhsarma/vectorshift/internal/config"
	"github.com/kasinadhsarma/vectorshift/internal/domain/connector"
	"github.com/kasinadhsarma/vectorshift/internal/provider"
	"github.com/kasinadhsarma/vectorshift/internal/repository"
)

// Service is the connector facade: the only entry point used by routing code
// and by provider data-fetch adapters. The engine itself is stateless; all
// mutable state lives in the two injected stores.
type Service interface {
	// BeginAuthorization creates a fresh pending authorization and returns
	// the provider redirect URL. A second call for the same key overwrites
	// the first pending attempt; only the most recent flow can complete.
	BeginAuthorization(ctx context.Context, providerName, userID, orgID string) (*Authorization, error)
	// CompleteAuthorization validates the provider callback, exchanges the
	// code, and persists the credential bundle.
	CompleteAuthorization(ctx context.Context, providerName string, in CallbackInput) (*Completed, error)
	// GetCredential loads the bundle for the key, refreshing it first when
	// the access token is at or past expiry. ErrNotConnected when absent or
	// when the provider revoked the refresh token.
	GetCredential(ctx context.Context, providerName, userID, orgID string) (*connector.CredentialBundle, error)
	// Disconnect deletes the stored bundle.
	Disconnect(ctx context.Context, providerName, userID, orgID string) error
	// Providers lists the fully configured provider descriptors.
	Providers() []*connector.Descriptor
}

// Authorization is the outcome of BeginAuthorization.
type Authorization struct {
	URL   string
	State string
}

// CallbackInput carries the provider callback query parameters.
type CallbackInput struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Completed identifies the principal whose authorization just finished.
type Completed struct {
	Provider string
	UserID   string
	OrgID    string
}

type service struct {
	registry       *provider.Registry
	states         repository.StateStore
	creds          repository.CredentialRepository
	providerClient oauthadapter.ProviderClient
	cfg            config.Config
	logger         *zap.Logger
	now            func() time.Time
}

// NewService wires the connector facade.
func NewService(
	registry *provider.Registry,
	states repository.StateStore,
	creds repository.CredentialRepository,
	providerClient oauthadapter.ProviderClient,
	cfg config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		registry:       registry,
		states:         states,
		creds:          creds,
		providerClient: providerClient,
		cfg:            cfg,
		logger:         logger,
		now:            time.Now,
	}
}

const statePrefix = "connector:state:"

func stateKey(providerName, orgID, userID string) string {
	return statePrefix + providerName + ":" + orgID + ":" + userID
}

func (s *service) BeginAuthorization(ctx context.Context, providerName, userID, orgID string) (*Authorization, error) {
	userID = strings.TrimSpace(userID)
	orgID = strings.TrimSpace(orgID)
	if userID == "" || orgID == "" {
		return nil, fmt.Errorf("connector: user and org required")
	}

	desc, err := s.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	nonce, err := newStateNonce()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}
	state, err := encodeState(statePayload{Nonce: nonce, UserID: userID, OrgID: orgID})
	if err != nil {
		return nil, err
	}

	var verifier, challenge string
	if desc.UsesPKCE {
		verifier, challenge, err = newPKCEPair()
		if err != nil {
			return nil, fmt.Errorf("generate pkce pair: %w", err)
		}
	}

	authURL, err := buildAuthorizationURL(desc, state, challenge)
	if err != nil {
		return nil, err
	}

	pending := connector.PendingAuthorization{
		State:        state,
		UserID:       userID,
		OrgID:        orgID,
		CodeVerifier: verifier,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.states.SaveState(ctx, stateKey(desc.Name, orgID, userID), pending, s.cfg.StateTTL); err != nil {
		return nil, fmt.Errorf("persist state: %w", err)
	}

	return &Authorization{URL: authURL, State: state}, nil
}

func (s *service) CompleteAuthorization(ctx context.Context, providerName string, in CallbackInput) (*Completed, error) {
	// A provider-reported error is a user-facing failure, never a server
	// fault; the description is surfaced verbatim.
	if in.Error != "" {
		return nil, &connector.ProviderError{Code: in.Error, Description: in.ErrorDescription}
	}
	if strings.TrimSpace(in.Code) == "" {
		return nil, connector.ErrStateMismatch
	}

	desc, err := s.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	payload, err := decodeState(in.State)
	if err != nil {
		return nil, err
	}

	key := stateKey(desc.Name, payload.OrgID, payload.UserID)
	pending, err := s.states.TakeState(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if pending == nil || pending.State != in.State {
		// Expired, replayed, forged, or overwritten by a newer attempt.
		// The only CSRF defense; fail closed.
		s.log().Warn("authorization state mismatch",
			zap.String("provider", desc.Name),
			zap.String("org_id", payload.OrgID),
			zap.String("user_id", payload.UserID),
			zap.String("state", truncate(in.State)),
		)
		return nil, connector.ErrStateMismatch
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, s.cfg.ExchangeTimeout)
	defer cancel()
	tokenResp, err := s.providerClient.ExchangeCode(exchangeCtx, *desc, in.Code, pending.CodeVerifier)
	if err != nil {
		s.log().Warn("token exchange failed",
			zap.String("provider", desc.Name),
			zap.String("code", truncate(in.Code)),
			zap.Error(err),
		)
		return nil, err
	}

	now := s.now().UTC()
	bundle := connector.CredentialBundle{
		Provider:     desc.Name,
		OrgID:        pending.OrgID,
		UserID:       pending.UserID,
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		Scope:        grantedScope(desc, tokenResp),
		ConnectedAt:  now,
		UpdatedAt:    now,
	}
	if desc.TokensExpire && tokenResp.ExpiresIn > 0 {
		expiresAt := now.Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
		bundle.ExpiresAt = &expiresAt
	}

	// The pending state is already consumed and is never resurrected: a
	// write failure here means the user restarts from BeginAuthorization.
	if err := s.creds.Save(ctx, bundle); err != nil {
		return nil, fmt.Errorf("persist credential: %w", err)
	}

	return &Completed{Provider: desc.Name, UserID: pending.UserID, OrgID: pending.OrgID}, nil
}

func (s *service) GetCredential(ctx context.Context, providerName, userID, orgID string) (*connector.CredentialBundle, error) {
	desc, err := s.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	bundle, err := s.creds.Get(ctx, desc.Name, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if bundle == nil {
		return nil, connector.ErrNotConnected
	}

	return s.ensureFresh(ctx, desc, bundle)
}

// ensureFresh lazily refreshes the bundle on the read path. No timers, no
// background workers: a concurrent read may trigger one extra harmless
// refresh, and the last write wins whole, never field-by-field.
func (s *service) ensureFresh(ctx context.Context, desc *connector.Descriptor, bundle *connector.CredentialBundle) (*connector.CredentialBundle, error) {
	if !desc.TokensExpire || !bundle.Expired(s.now().UTC(), s.cfg.RefreshSkew) {
		return bundle, nil
	}
	if bundle.RefreshToken == "" {
		return nil, s.dropConnection(ctx, desc.Name, bundle)
	}

	refreshCtx, cancel := context.WithTimeout(ctx, s.cfg.ExchangeTimeout)
	defer cancel()
	tokenResp, err := s.providerClient.RefreshToken(refreshCtx, *desc, bundle.RefreshToken)
	if err != nil {
		var exchErr *connector.ExchangeError
		if errors.As(err, &exchErr) && exchErr.InvalidGrant() {
			// Provider revoked the refresh token; the connection is gone,
			// not retried.
			return nil, s.dropConnection(ctx, desc.Name, bundle)
		}
		return nil, err
	}

	now := s.now().UTC()
	fresh := connector.CredentialBundle{
		Provider:     bundle.Provider,
		OrgID:        bundle.OrgID,
		UserID:       bundle.UserID,
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		Scope:        bundle.Scope,
		ConnectedAt:  bundle.ConnectedAt,
		UpdatedAt:    now,
	}
	if fresh.RefreshToken == "" {
		// Providers that do not rotate omit the refresh token; carry the
		// one just used forward explicitly so the replace-write stays full.
		fresh.RefreshToken = bundle.RefreshToken
	}
	if tokenResp.Scope != "" {
		fresh.Scope = tokenResp.Scope
	}
	if tokenResp.ExpiresIn > 0 {
		expiresAt := now.Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
		fresh.ExpiresAt = &expiresAt
	}

	if err := s.creds.Save(ctx, fresh); err != nil {
		return nil, fmt.Errorf("persist refreshed credential: %w", err)
	}
	return &fresh, nil
}

func (s *service) dropConnection(ctx context.Context, providerName string, bundle *connector.CredentialBundle) error {
	if err := s.creds.Delete(ctx, providerName, bundle.OrgID, bundle.UserID); err != nil {
		s.log().Warn("failed to delete revoked credential",
			zap.String("provider", providerName),
			zap.String("org_id", bundle.OrgID),
			zap.String("user_id", bundle.UserID),
			zap.Error(err),
		)
	}
	return connector.ErrNotConnected
}

func (s *service) Disconnect(ctx context.Context, providerName, userID, orgID string) error {
	desc, err := s.registry.Get(providerName)
	if err != nil {
		return err
	}
	if err := s.creds.Delete(ctx, desc.Name, orgID, userID); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func (s *service) Providers() []*connector.Descriptor {
	return s.registry.List()
}

func grantedScope(desc *connector.Descriptor, resp *connector.TokenResponse) string {
	if resp.Scope != "" {
		return resp.Scope
	}
	sep := desc.ScopeSeparator
	if sep == "" {
		sep = " "
	}
	return strings.Join(desc.Scopes, sep)
}

func (s *service) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}

// truncate caps secret-adjacent values before they reach a log sink.
func truncate(v string) string {
	if len(v) <= 8 {
		return v
	}
	return v[:8] + "..."
}
