package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kasinadhsarma/vectorshift/internal/config"
	"github.com/kasinadhsarma/vectorshift/internal/domain/connector"
)

// defaults carries the parts of a descriptor that are fixed per provider:
// endpoints, default scopes, and wire quirks. Client registration comes from
// config.
type defaults struct {
	displayName     string
	authURL         string
	tokenURL        string
	scopes          []string
	scopeSeparator  string
	extraAuthParams map[string]string
	usesPKCE        bool
	authStyle       connector.ClientAuthStyle
	tokensExpire    bool
}

// providerDefaults is the full quirk table. Scope separators, PKCE, and
// client auth style vary per provider and must be preserved exactly.
var providerDefaults = map[string]defaults{
	"hubspot": {
		displayName: "HubSpot",
		authURL:     "https://app.hubspot.com/oauth/authorize",
		tokenURL:    "https://api.hubapi.com/oauth/v1/token",
		scopes: []string{
			"contacts",
			"oauth",
			"crm.objects.contacts.read",
			"crm.objects.companies.read",
			"crm.objects.deals.read",
		},
		scopeSeparator: " ",
		authStyle:      connector.ClientAuthBody,
		tokensExpire:   true,
	},
	"notion": {
		displayName:    "Notion",
		authURL:        "https://api.notion.com/v1/oauth/authorize",
		tokenURL:       "https://api.notion.com/v1/oauth/token",
		scopes:         nil, // Notion grants capabilities at the integration level; no scope param.
		scopeSeparator: " ",
		extraAuthParams: map[string]string{
			"owner": "user",
		},
		authStyle:    connector.ClientAuthBasic,
		tokensExpire: false,
	},
	"airtable": {
		displayName: "Airtable",
		authURL:     "https://airtable.com/oauth2/v1/authorize",
		tokenURL:    "https://airtable.com/oauth2/v1/token",
		scopes: []string{
			"data.records:read",
			"data.records:write",
			"schema.bases:read",
			"schema.bases:write",
		},
		scopeSeparator: " ",
		extraAuthParams: map[string]string{
			"owner": "user",
		},
		usesPKCE:     true,
		authStyle:    connector.ClientAuthBasic,
		tokensExpire: true,
	},
	"slack": {
		displayName: "Slack",
		authURL:     "https://slack.com/oauth/v2/authorize",
		tokenURL:    "https://slack.com/api/oauth.v2.access",
		scopes: []string{
			"channels:read",
			"channels:history",
			"chat:write",
			"team:read",
			"users:read",
		},
		scopeSeparator: ",",
		authStyle:      connector.ClientAuthBody,
		tokensExpire:   false,
	},
}

// Registry resolves provider names to immutable descriptors.
type Registry struct {
	descriptors map[string]*connector.Descriptor
	incomplete  map[string][]string
}

// NewRegistry assembles descriptors for every provider present in config.
// Providers with a partial registration are kept and fail on first use
// rather than being silently skipped.
func NewRegistry(cfg config.Config) *Registry {
	r := &Registry{
		descriptors: make(map[string]*connector.Descriptor),
		incomplete:  make(map[string][]string),
	}
	for name, client := range cfg.Providers {
		def, ok := providerDefaults[name]
		if !ok {
			continue
		}
		if missing := client.Validate(); len(missing) > 0 {
			r.incomplete[name] = missing
			continue
		}
		scopes := def.scopes
		if len(client.Scopes) > 0 {
			scopes = client.Scopes
		}
		r.descriptors[name] = &connector.Descriptor{
			Name:            name,
			DisplayName:     def.displayName,
			AuthURL:         def.authURL,
			TokenURL:        def.tokenURL,
			ClientID:        client.ClientID,
			ClientSecret:    client.ClientSecret,
			RedirectURI:     client.RedirectURI,
			Scopes:          append([]string(nil), scopes...),
			ScopeSeparator:  def.scopeSeparator,
			ExtraAuthParams: def.extraAuthParams,
			UsesPKCE:        def.usesPKCE,
			AuthStyle:       def.authStyle,
			TokensExpire:    def.tokensExpire,
		}
	}
	return r
}

// Get returns the descriptor for name, ErrNotConfigured when the registration
// is partial, or ErrProviderNotFound when nothing is registered under name.
func (r *Registry) Get(name string) (*connector.Descriptor, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if desc, ok := r.descriptors[key]; ok {
		return desc, nil
	}
	if missing, ok := r.incomplete[key]; ok {
		return nil, fmt.Errorf("provider %s missing %s: %w", key, strings.Join(missing, ", "), connector.ErrNotConfigured)
	}
	return nil, fmt.Errorf("provider %s: %w", key, connector.ErrProviderNotFound)
}

// List returns the fully configured descriptors sorted by name.
func (r *Registry) List() []*connector.Descriptor {
	out := make([]*connector.Descriptor, 0, len(r.descriptors))
	for _, desc := range r.descriptors {
		out = append(out, desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
