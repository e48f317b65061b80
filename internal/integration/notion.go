package integration

import (
	"context"
	"net/http"

	connectorsvc "github.com/kasinadhsarma/vectorshift/internal/service/connector"
)

const (
	defaultNotionAPIURL = "https://api.notion.com"
	notionVersion       = "2022-06-28"
)

// Notion lists the pages and databases shared with the integration via the
// search API.
type Notion struct {
	connectors connectorsvc.Service
	client     *http.Client
	baseURL    string
}

var _ Source = (*Notion)(nil)

func NewNotion(connectors connectorsvc.Service, client *http.Client) *Notion {
	return &Notion{
		connectors: connectors,
		client:     newHTTPClient(client),
		baseURL:    defaultNotionAPIURL,
	}
}

func (n *Notion) Name() string { return "notion" }

type notionSearchResponse struct {
	Results    []notionObject `json:"results"`
	HasMore    bool           `json:"has_more"`
	NextCursor string         `json:"next_cursor"`
}

type notionObject struct {
	Object         string                    `json:"object"`
	ID             string                    `json:"id"`
	URL            string                    `json:"url"`
	CreatedTime    string                    `json:"created_time"`
	LastEditedTime string                    `json:"last_edited_time"`
	Properties     map[string]notionProperty `json:"properties"`
	Title          []notionRichText          `json:"title"`
}

type notionProperty struct {
	Type  string           `json:"type"`
	Title []notionRichText `json:"title"`
}

type notionRichText struct {
	PlainText string `json:"plain_text"`
}

func (n *Notion) Items(ctx context.Context, userID, orgID string) ([]Item, error) {
	bundle, err := n.connectors.GetCredential(ctx, n.Name(), userID, orgID)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"Notion-Version": notionVersion}

	var items []Item
	cursor := ""
	for {
		payload := map[string]any{"page_size": 100}
		if cursor != "" {
			payload["start_cursor"] = cursor
		}
		var resp notionSearchResponse
		if err := postJSON(ctx, n.client, n.Name(), n.baseURL+"/v1/search", bundle.AccessToken, payload, headers, &resp); err != nil {
			return nil, err
		}
		for _, obj := range resp.Results {
			items = append(items, Item{
				ID:               obj.ID,
				Type:             obj.Object,
				Name:             notionTitle(obj),
				URL:              obj.URL,
				Directory:        obj.Object == "database",
				CreationTime:     obj.CreatedTime,
				LastModifiedTime: obj.LastEditedTime,
			})
		}
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	return items, nil
}

// notionTitle extracts a display name from either a database title array or
// a page's title property. Untitled objects keep a stable placeholder.
func notionTitle(obj notionObject) string {
	if text := joinRichText(obj.Title); text != "" {
		return text
	}
	for _, prop := range obj.Properties {
		if prop.Type != "title" {
			continue
		}
		if text := joinRichText(prop.Title); text != "" {
			return text
		}
	}
	return "Untitled"
}

func joinRichText(parts []notionRichText) string {
	var out string
	for _, p := range parts {
		out += p.PlainText
	}
	return out
}
