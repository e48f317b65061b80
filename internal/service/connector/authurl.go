package connector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kasinadhsarma/vectorshift/internal/domain/connector"
)

// buildAuthorizationURL serializes the authorization redirect for one pending
// attempt. Every parameter is encoded exactly once via url.Values; several
// providers reject a redirect URI that arrives raw or double-encoded.
func buildAuthorizationURL(desc *connector.Descriptor, state, codeChallenge string) (string, error) {
	authURL, err := url.Parse(desc.AuthURL)
	if err != nil {
		return "", fmt.Errorf("parse auth url: %w", err)
	}

	params := authURL.Query()
	params.Set("client_id", desc.ClientID)
	params.Set("redirect_uri", desc.RedirectURI)
	params.Set("response_type", "code")
	params.Set("state", state)
	if len(desc.Scopes) > 0 {
		sep := desc.ScopeSeparator
		if sep == "" {
			sep = " "
		}
		params.Set("scope", strings.Join(desc.Scopes, sep))
	}
	if codeChallenge != "" {
		params.Set("code_challenge", codeChallenge)
		params.Set("code_challenge_method", "S256")
	}
	for k, v := range desc.ExtraAuthParams {
		key := strings.TrimSpace(k)
		if key == "" || strings.TrimSpace(v) == "" {
			continue
		}
		params.Set(key, v)
	}
	authURL.RawQuery = params.Encode()

	return authURL.String(), nil
}
