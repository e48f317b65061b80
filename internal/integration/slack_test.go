package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlackItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer slack-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/team.info":
			_, _ = w.Write([]byte(`{"ok":true,"team":{"id":"T1","name":"Acme","domain":"acme"}}`))
		case "/conversations.list":
			if r.URL.Query().Get("cursor") == "" {
				_, _ = w.Write([]byte(`{"ok":true,"channels":[
					{"id":"C1","name":"general"},
					{"id":"C2","name":"old-stuff","is_archived":true}
				],"response_metadata":{"next_cursor":"page2"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"channels":[{"id":"C3","name":"eng"}]}`))
		case "/users.list":
			_, _ = w.Write([]byte(`{"ok":true,"members":[
				{"id":"U1","name":"ada","profile":{"real_name":"Ada Lovelace","email":"ada@acme.example"}},
				{"id":"U2","name":"slackbot","is_bot":true},
				{"id":"U3","name":"ghost","deleted":true}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	sl := NewSlack(&stubCredentials{token: "slack-token"}, srv.Client())
	sl.baseURL = srv.URL

	items, err := sl.Items(context.Background(), "user-1", "org-1")
	require.NoError(t, err)
	require.Len(t, items, 4)

	require.Equal(t, "team", items[0].Type)
	require.Equal(t, "Acme", items[0].Name)
	require.True(t, items[0].Directory)
	require.Equal(t, "https://acme.slack.com", items[0].URL)

	// Archived channels are skipped; pagination is followed.
	require.Equal(t, "#general", items[1].Name)
	require.Equal(t, "#eng", items[2].Name)
	require.Equal(t, "Acme", items[1].ParentName)

	// Bots and deleted users are skipped.
	require.Equal(t, "user", items[3].Type)
	require.Equal(t, "Ada Lovelace", items[3].Name)
	require.Equal(t, "ada@acme.example", items[3].Email)
}

func TestSlackItems_EmbeddedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"invalid_auth"}`))
	}))
	defer srv.Close()

	sl := NewSlack(&stubCredentials{token: "slack-token"}, srv.Client())
	sl.baseURL = srv.URL

	_, err := sl.Items(context.Background(), "user-1", "org-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid_auth")
}
