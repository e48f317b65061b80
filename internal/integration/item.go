// Package integration holds the per-provider data-fetch adapters. Each
// adapter obtains a fresh credential bundle through the connector facade and
// normalizes the provider's objects into Item records for the dashboard.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Item is the provider-agnostic record shape returned by every adapter.
type Item struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	URL        string `json:"url,omitempty"`
	ParentID   string `json:"parentId,omitempty"`
	ParentName string `json:"parentName,omitempty"`
	Directory  bool   `json:"directory,omitempty"`

	CreationTime     string `json:"creationTime,omitempty"`
	LastModifiedTime string `json:"lastModifiedTime,omitempty"`

	// CRM-specific fields (HubSpot contacts, companies, deals).
	Email      string  `json:"email,omitempty"`
	Company    string  `json:"company,omitempty"`
	Industry   string  `json:"industry,omitempty"`
	Domain     string  `json:"domain,omitempty"`
	DealStage  string  `json:"dealStage,omitempty"`
	DealAmount float64 `json:"dealAmount,omitempty"`
}

// Source is one connected data source. Name matches the provider name
// registered with the connector facade.
type Source interface {
	Name() string
	Items(ctx context.Context, userID, orgID string) ([]Item, error)
}

// APIError is a non-2xx response from a provider data API.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("integration: %s api returned status %d", e.Provider, e.Status)
}

func newHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return client
}

// doJSON issues the request with a bearer token and decodes the response
// into out. Bodies are capped at 1 MiB.
func doJSON(client *http.Client, req *http.Request, providerName, accessToken string, out any) error {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", providerName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", providerName, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Provider: providerName, Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", providerName, err)
	}
	return nil
}

func getJSON(ctx context.Context, client *http.Client, providerName, rawURL, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", providerName, err)
	}
	return doJSON(client, req, providerName, accessToken, out)
}

func postJSON(ctx context.Context, client *http.Client, providerName, rawURL, accessToken string, payload any, headers map[string]string, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", providerName, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(string(raw)))
	if err != nil {
		return fmt.Errorf("build %s request: %w", providerName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return doJSON(client, req, providerName, accessToken, out)
}
