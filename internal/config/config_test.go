package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/connect")
	t.Setenv("SESSION_JWT_SECRET", "super-secret")
	t.Setenv("HUBSPOT_CLIENT_ID", "hs-id")
	t.Setenv("HUBSPOT_CLIENT_SECRET", "hs-secret")
	t.Setenv("HUBSPOT_REDIRECT_URI", "https://connect.example.com/api/integrations/hubspot/oauth2callback")
	t.Setenv("SLACK_CLIENT_ID", "slack-id")
	t.Setenv("STATE_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.StateTTL)
	require.Equal(t, 15*time.Second, cfg.ExchangeTimeout)
	require.Equal(t, time.Minute, cfg.RefreshSkew)

	hubspot, ok := cfg.Providers["hubspot"]
	require.True(t, ok)
	require.Equal(t, "hs-id", hubspot.ClientID)
	require.Empty(t, hubspot.Validate())

	// Partially configured providers are kept so they fail on use rather
	// than vanish.
	slack, ok := cfg.Providers["slack"]
	require.True(t, ok)
	require.Contains(t, slack.Validate(), "client secret")

	_, ok = cfg.Providers["notion"]
	require.False(t, ok)
}

func TestLoad_RequiredValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_JWT_SECRET", "super-secret")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/connect")
	t.Setenv("SESSION_JWT_SECRET", "")
	_, err = Load()
	require.Error(t, err)
}

func TestScopeListParsing(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/connect")
	t.Setenv("SESSION_JWT_SECRET", "super-secret")
	t.Setenv("AIRTABLE_CLIENT_ID", "at-id")
	t.Setenv("AIRTABLE_CLIENT_SECRET", "at-secret")
	t.Setenv("AIRTABLE_REDIRECT_URI", "https://connect.example.com/cb")
	t.Setenv("AIRTABLE_SCOPES", "data.records:read, schema.bases:read")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"data.records:read", "schema.bases:read"}, cfg.Providers["airtable"].Scopes)
}
