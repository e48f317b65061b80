package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	connectorsvc "github.com/kasinadhsarma/vectorshift/internal/service/connector"
)

const defaultAirtableAPIURL = "https://api.airtable.com"

// Airtable lists the accessible bases and each base's tables.
type Airtable struct {
	connectors connectorsvc.Service
	client     *http.Client
	baseURL    string
}

var _ Source = (*Airtable)(nil)

func NewAirtable(connectors connectorsvc.Service, client *http.Client) *Airtable {
	return &Airtable{
		connectors: connectors,
		client:     newHTTPClient(client),
		baseURL:    defaultAirtableAPIURL,
	}
}

func (a *Airtable) Name() string { return "airtable" }

type airtableBasesResponse struct {
	Bases  []airtableBase `json:"bases"`
	Offset string         `json:"offset"`
}

type airtableBase struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PermissionLevel string `json:"permissionLevel"`
}

type airtableTablesResponse struct {
	Tables []airtableTable `json:"tables"`
}

type airtableTable struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a *Airtable) Items(ctx context.Context, userID, orgID string) ([]Item, error) {
	bundle, err := a.connectors.GetCredential(ctx, a.Name(), userID, orgID)
	if err != nil {
		return nil, err
	}
	token := bundle.AccessToken

	bases, err := a.listBases(ctx, token)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, base := range bases {
		items = append(items, Item{
			ID:        base.ID,
			Type:      "base",
			Name:      base.Name,
			URL:       "https://airtable.com/" + base.ID,
			Directory: true,
		})

		var tables airtableTablesResponse
		tablesURL := fmt.Sprintf("%s/v0/meta/bases/%s/tables", a.baseURL, base.ID)
		if err := getJSON(ctx, a.client, a.Name(), tablesURL, token, &tables); err != nil {
			return nil, err
		}
		for _, table := range tables.Tables {
			items = append(items, Item{
				ID:         base.ID + "/" + table.ID,
				Type:       "table",
				Name:       table.Name,
				URL:        fmt.Sprintf("https://airtable.com/%s/%s", base.ID, table.ID),
				ParentID:   base.ID,
				ParentName: base.Name,
			})
		}
	}
	return items, nil
}

// listBases follows the offset-based pagination of the meta API until
// exhausted.
func (a *Airtable) listBases(ctx context.Context, token string) ([]airtableBase, error) {
	var bases []airtableBase
	offset := ""
	for {
		basesURL := a.baseURL + "/v0/meta/bases"
		if offset != "" {
			basesURL += "?offset=" + url.QueryEscape(offset)
		}
		var resp airtableBasesResponse
		if err := getJSON(ctx, a.client, a.Name(), basesURL, token, &resp); err != nil {
			return nil, err
		}
		bases = append(bases, resp.Bases...)
		if resp.Offset == "" {
			return bases, nil
		}
		offset = resp.Offset
	}
}
