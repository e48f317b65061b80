package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	connectorsvc "github.com/kasinadhsarma/vectorshift/internal/service/connector"
)

const defaultSlackAPIURL = "https://slack.com/api"

// Slack lists the workspace team, channels, and members. Slack's web API
// reports failures as 200 responses with ok=false, which every call checks.
type Slack struct {
	connectors connectorsvc.Service
	client     *http.Client
	baseURL    string
}

var _ Source = (*Slack)(nil)

func NewSlack(connectors connectorsvc.Service, client *http.Client) *Slack {
	return &Slack{
		connectors: connectors,
		client:     newHTTPClient(client),
		baseURL:    defaultSlackAPIURL,
	}
}

func (s *Slack) Name() string { return "slack" }

type slackEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`

	Team     *slackTeam     `json:"team"`
	Channels []slackChannel `json:"channels"`
	Members  []slackMember  `json:"members"`

	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

type slackTeam struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

type slackChannel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsArchived bool   `json:"is_archived"`
	NumMembers int    `json:"num_members"`
}

type slackMember struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
	IsBot   bool   `json:"is_bot"`
	Profile struct {
		RealName string `json:"real_name"`
		Email    string `json:"email"`
	} `json:"profile"`
}

func (s *Slack) Items(ctx context.Context, userID, orgID string) ([]Item, error) {
	bundle, err := s.connectors.GetCredential(ctx, s.Name(), userID, orgID)
	if err != nil {
		return nil, err
	}
	token := bundle.AccessToken

	var items []Item

	team, err := s.call(ctx, token, "team.info", nil)
	if err != nil {
		return nil, err
	}
	teamName := ""
	if team.Team != nil {
		teamName = team.Team.Name
		items = append(items, Item{
			ID:        team.Team.ID,
			Type:      "team",
			Name:      team.Team.Name,
			URL:       fmt.Sprintf("https://%s.slack.com", team.Team.Domain),
			Directory: true,
		})
	}

	if err := s.paginate(ctx, token, "conversations.list", func(env *slackEnvelope) {
		for _, ch := range env.Channels {
			if ch.IsArchived {
				continue
			}
			items = append(items, Item{
				ID:         ch.ID,
				Type:       "channel",
				Name:       "#" + ch.Name,
				ParentName: teamName,
			})
		}
	}); err != nil {
		return nil, err
	}

	if err := s.paginate(ctx, token, "users.list", func(env *slackEnvelope) {
		for _, m := range env.Members {
			if m.Deleted || m.IsBot {
				continue
			}
			name := m.Profile.RealName
			if name == "" {
				name = m.Name
			}
			items = append(items, Item{
				ID:         m.ID,
				Type:       "user",
				Name:       name,
				Email:      m.Profile.Email,
				ParentName: teamName,
			})
		}
	}); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *Slack) call(ctx context.Context, token, method string, params url.Values) (*slackEnvelope, error) {
	callURL := s.baseURL + "/" + method
	if len(params) > 0 {
		callURL += "?" + params.Encode()
	}
	var env slackEnvelope
	if err := getJSON(ctx, s.client, s.Name(), callURL, token, &env); err != nil {
		return nil, err
	}
	if !env.OK {
		return nil, fmt.Errorf("integration: slack %s failed: %s", method, env.Error)
	}
	return &env, nil
}

func (s *Slack) paginate(ctx context.Context, token, method string, collect func(*slackEnvelope)) error {
	cursor := ""
	for {
		params := url.Values{}
		params.Set("limit", "200")
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		env, err := s.call(ctx, token, method, params)
		if err != nil {
			return err
		}
		collect(env)
		cursor = env.ResponseMetadata.NextCursor
		if cursor == "" {
			return nil
		}
	}
}
