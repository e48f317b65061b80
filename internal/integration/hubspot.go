package integration

import (
	"context"
	"fmt"
	"net/http"

	connectorsvc "github.com/kasinadhsarma/vectorshift/internal/service/connector"
)

const defaultHubSpotAPIURL = "https://api.hubapi.com"

// HubSpot fetches CRM contacts, companies, and deals.
type HubSpot struct {
	connectors connectorsvc.Service
	client     *http.Client
	baseURL    string
}

var _ Source = (*HubSpot)(nil)

func NewHubSpot(connectors connectorsvc.Service, client *http.Client) *HubSpot {
	return &HubSpot{
		connectors: connectors,
		client:     newHTTPClient(client),
		baseURL:    defaultHubSpotAPIURL,
	}
}

func (h *HubSpot) Name() string { return "hubspot" }

type hubspotObject struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  string            `json:"createdAt"`
	UpdatedAt  string            `json:"updatedAt"`
}

type hubspotListResponse struct {
	Results []hubspotObject `json:"results"`
}

func (h *HubSpot) Items(ctx context.Context, userID, orgID string) ([]Item, error) {
	bundle, err := h.connectors.GetCredential(ctx, h.Name(), userID, orgID)
	if err != nil {
		return nil, err
	}
	token := bundle.AccessToken

	var items []Item

	contacts, err := h.list(ctx, token, "contacts", "properties=firstname,lastname,email,company")
	if err != nil {
		return nil, err
	}
	for _, obj := range contacts.Results {
		name := joinName(obj.Properties["firstname"], obj.Properties["lastname"])
		if name == "" {
			name = obj.Properties["email"]
		}
		items = append(items, Item{
			ID:               obj.ID,
			Type:             "contact",
			Name:             name,
			Email:            obj.Properties["email"],
			Company:          obj.Properties["company"],
			CreationTime:     obj.CreatedAt,
			LastModifiedTime: obj.UpdatedAt,
		})
	}

	companies, err := h.list(ctx, token, "companies", "properties=name,domain,industry")
	if err != nil {
		return nil, err
	}
	for _, obj := range companies.Results {
		items = append(items, Item{
			ID:               obj.ID,
			Type:             "company",
			Name:             obj.Properties["name"],
			Domain:           obj.Properties["domain"],
			Industry:         obj.Properties["industry"],
			CreationTime:     obj.CreatedAt,
			LastModifiedTime: obj.UpdatedAt,
		})
	}

	deals, err := h.list(ctx, token, "deals", "properties=dealname,dealstage,amount")
	if err != nil {
		return nil, err
	}
	for _, obj := range deals.Results {
		items = append(items, Item{
			ID:               obj.ID,
			Type:             "deal",
			Name:             obj.Properties["dealname"],
			DealStage:        obj.Properties["dealstage"],
			DealAmount:       parseAmount(obj.Properties["amount"]),
			CreationTime:     obj.CreatedAt,
			LastModifiedTime: obj.UpdatedAt,
		})
	}

	return items, nil
}

func (h *HubSpot) list(ctx context.Context, token, objectType, query string) (*hubspotListResponse, error) {
	url := fmt.Sprintf("%s/crm/v3/objects/%s?limit=100&%s", h.baseURL, objectType, query)
	var out hubspotListResponse
	if err := getJSON(ctx, h.client, h.Name(), url, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

func parseAmount(raw string) float64 {
	var amount float64
	if raw == "" {
		return 0
	}
	if _, err := fmt.Sscanf(raw, "%f", &amount); err != nil {
		return 0
	}
	return amount
}
