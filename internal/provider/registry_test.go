package provider

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kasinadhsarma/vectorshift/internal/config"
	"github.com/kasinadhsarma/vectorshift/internal/domain/connector"
)

func testConfig() config.Config {
	return config.Config{
		Providers: map[string]config.OAuthClient{
			"hubspot": {
				ClientID:     "hs-id",
				ClientSecret: "hs-secret",
				RedirectURI:  "https://connect.example.com/api/integrations/hubspot/oauth2callback",
			},
			"slack": {
				ClientID:     "slack-id",
				ClientSecret: "slack-secret",
				RedirectURI:  "https://connect.example.com/api/integrations/slack/oauth2callback",
			},
			// Secret is missing; must fail on first use with a precise message.
			"notion": {
				ClientID:    "notion-id",
				RedirectURI: "https://connect.example.com/api/integrations/notion/oauth2callback",
			},
		},
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry(testConfig())

	desc, err := r.Get("hubspot")
	require.NoError(t, err)
	require.Equal(t, "hubspot", desc.Name)
	require.Equal(t, "HubSpot", desc.DisplayName)
	require.Equal(t, "https://app.hubspot.com/oauth/authorize", desc.AuthURL)
	require.Equal(t, "https://api.hubapi.com/oauth/v1/token", desc.TokenURL)
	require.Equal(t, "hs-id", desc.ClientID)
	require.Equal(t, " ", desc.ScopeSeparator)
	require.Equal(t, connector.ClientAuthBody, desc.AuthStyle)
	require.True(t, desc.TokensExpire)
	require.False(t, desc.UsesPKCE)
}

func TestRegistry_GetNormalizesName(t *testing.T) {
	r := NewRegistry(testConfig())

	desc, err := r.Get("  HubSpot ")
	require.NoError(t, err)
	require.Equal(t, "hubspot", desc.Name)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry(testConfig())

	_, err := r.Get("linear")
	require.ErrorIs(t, err, connector.ErrProviderNotFound)
}

func TestRegistry_GetPartialConfiguration(t *testing.T) {
	r := NewRegistry(testConfig())

	_, err := r.Get("notion")
	require.ErrorIs(t, err, connector.ErrNotConfigured)
	require.Contains(t, err.Error(), "client secret")
}

func TestRegistry_SlackQuirks(t *testing.T) {
	r := NewRegistry(testConfig())

	desc, err := r.Get("slack")
	require.NoError(t, err)
	require.Equal(t, ",", desc.ScopeSeparator)
	require.False(t, desc.TokensExpire)
	require.Equal(t, "https://slack.com/api/oauth.v2.access", desc.TokenURL)
}

func TestRegistry_AirtableQuirks(t *testing.T) {
	cfg := testConfig()
	cfg.Providers["airtable"] = config.OAuthClient{
		ClientID:     "at-id",
		ClientSecret: "at-secret",
		RedirectURI:  "https://connect.example.com/api/integrations/airtable/oauth2callback",
	}
	r := NewRegistry(cfg)

	desc, err := r.Get("airtable")
	require.NoError(t, err)
	require.True(t, desc.UsesPKCE)
	require.Equal(t, connector.ClientAuthBasic, desc.AuthStyle)
	require.Equal(t, "user", desc.ExtraAuthParams["owner"])
}

func TestRegistry_ScopeOverride(t *testing.T) {
	cfg := testConfig()
	client := cfg.Providers["hubspot"]
	client.Scopes = []string{"crm.objects.contacts.read"}
	cfg.Providers["hubspot"] = client
	r := NewRegistry(cfg)

	desc, err := r.Get("hubspot")
	require.NoError(t, err)
	require.Equal(t, []string{"crm.objects.contacts.read"}, desc.Scopes)
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry(testConfig())

	descs := r.List()
	require.Len(t, descs, 2)
	require.Equal(t, "hubspot", descs[0].Name)
	require.Equal(t, "slack", descs[1].Name)
}
