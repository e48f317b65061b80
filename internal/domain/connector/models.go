package connector

import "time"

// ClientAuthStyle selects how client credentials are transmitted on the
// token endpoint: form-encoded in the body, or an HTTP Basic header.
type ClientAuthStyle int

const (
	ClientAuthBody ClientAuthStyle = iota
	ClientAuthBasic
)

// Descriptor is the static per-provider OAuth configuration. Loaded at
// startup and immutable for the process lifetime.
type Descriptor struct {
	Name         string
	DisplayName  string
	AuthURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// Scopes are joined with ScopeSeparator on the wire; providers disagree
	// on space vs comma and the separator must be preserved per provider.
	Scopes         []string
	ScopeSeparator string

	// ExtraAuthParams are additional query parameters some providers require
	// on the authorization URL (e.g. owner=user).
	ExtraAuthParams map[string]string

	UsesPKCE  bool
	AuthStyle ClientAuthStyle

	// TokensExpire reports whether the provider returns expires_in and a
	// refresh_token. When false the stored access token is treated as
	// non-expiring and never refreshed.
	TokensExpire bool
}

// PendingAuthorization is the ephemeral state persisted for the lifetime of
// one authorization attempt. At most one exists per (provider, org, user);
// starting a new authorization overwrites any prior pending one.
type PendingAuthorization struct {
	State        string    `json:"state"`
	UserID       string    `json:"user_id"`
	OrgID        string    `json:"org_id"`
	CodeVerifier string    `json:"code_verifier,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CredentialBundle is the durable token material for one connected account,
// keyed by (provider, org, user). Writes are full-bundle replaces.
type CredentialBundle struct {
	Provider     string
	OrgID        string
	UserID       string
	AccessToken  string
	RefreshToken string
	// ExpiresAt is nil when the provider does not issue expiring tokens.
	ExpiresAt   *time.Time
	Scope       string
	ConnectedAt time.Time
	UpdatedAt   time.Time
}

// Expired reports whether the bundle's access token is past (or within skew
// of) its expiry at the given instant. Bundles without an expiry never expire.
func (b *CredentialBundle) Expired(now time.Time, skew time.Duration) bool {
	if b.ExpiresAt == nil {
		return false
	}
	return !now.Add(skew).Before(*b.ExpiresAt)
}

// TokenResponse models the provider token endpoint response after a code or
// refresh exchange.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	TokenType    string
	Scope        string
	Raw          map[string]any
}
