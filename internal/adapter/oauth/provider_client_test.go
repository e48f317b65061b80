package oauth

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kasinadhsarma/vectorshift/internal/domain/connector"
)

func bodyAuthDescriptor(tokenURL string) connector.Descriptor {
	return connector.Descriptor{
		Name:         "hubspot",
		TokenURL:     tokenURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://connect.example.com/cb",
		AuthStyle:    connector.ClientAuthBody,
	}
}

func basicAuthDescriptor(tokenURL string) connector.Descriptor {
	desc := bodyAuthDescriptor(tokenURL)
	desc.Name = "notion"
	desc.AuthStyle = connector.ClientAuthBasic
	return desc
}

func TestExchangeCode_BodyClientAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, "the-code", r.PostForm.Get("code"))
		require.Equal(t, "https://connect.example.com/cb", r.PostForm.Get("redirect_uri"))
		require.Equal(t, "client-id", r.PostForm.Get("client_id"))
		require.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		require.Empty(t, r.Header.Get("Authorization"))
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":1800,"token_type":"bearer","scope":"contacts oauth"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(srv.Client())
	token, err := client.ExchangeCode(context.Background(), bodyAuthDescriptor(srv.URL), "the-code", "")
	require.NoError(t, err)
	require.Equal(t, "at-1", token.AccessToken)
	require.Equal(t, "rt-1", token.RefreshToken)
	require.Equal(t, int64(1800), token.ExpiresIn)
	require.Equal(t, "contacts oauth", token.Scope)
}

func TestExchangeCode_BasicClientAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Empty(t, r.PostForm.Get("client_id"))
		require.Empty(t, r.PostForm.Get("client_secret"))

		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("client-id:client-secret"))
		require.Equal(t, expected, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"bearer"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(srv.Client())
	token, err := client.ExchangeCode(context.Background(), basicAuthDescriptor(srv.URL), "the-code", "")
	require.NoError(t, err)
	require.Equal(t, "at-1", token.AccessToken)
	require.Empty(t, token.RefreshToken)
	require.Zero(t, token.ExpiresIn)
}

func TestExchangeCode_ForwardsCodeVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "the-verifier", r.PostForm.Get("code_verifier"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(srv.Client())
	_, err := client.ExchangeCode(context.Background(), basicAuthDescriptor(srv.URL), "the-code", "the-verifier")
	require.NoError(t, err)
}

func TestExchangeCode_HTTPErrorWithOAuthBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Code expired"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(srv.Client())
	_, err := client.ExchangeCode(context.Background(), bodyAuthDescriptor(srv.URL), "stale-code", "")

	var exchErr *connector.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	require.Equal(t, connector.ExchangeHTTP, exchErr.Kind)
	require.Equal(t, http.StatusBadRequest, exchErr.Status)
	require.Equal(t, "invalid_grant", exchErr.Code)
	require.Equal(t, "Code expired", exchErr.Message)
	require.True(t, exchErr.InvalidGrant())
}

func TestExchangeCode_SlackEmbeddedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"invalid_code"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(srv.Client())
	desc := bodyAuthDescriptor(srv.URL)
	desc.Name = "slack"
	_, err := client.ExchangeCode(context.Background(), desc, "bad-code", "")

	var exchErr *connector.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	require.Equal(t, connector.ExchangeProvider, exchErr.Kind)
	require.Equal(t, "invalid_code", exchErr.Code)
	require.Equal(t, http.StatusOK, exchErr.Status)
}

func TestExchangeCode_EmbeddedErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"Bad client"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(srv.Client())
	_, err := client.ExchangeCode(context.Background(), bodyAuthDescriptor(srv.URL), "code", "")

	var exchErr *connector.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	require.Equal(t, connector.ExchangeProvider, exchErr.Kind)
	require.Equal(t, "invalid_client", exchErr.Code)
	require.Equal(t, "Bad client", exchErr.Message)
}

func TestExchangeCode_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(srv.Client())
	_, err := client.ExchangeCode(context.Background(), bodyAuthDescriptor(srv.URL), "code", "")

	var exchErr *connector.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	require.Equal(t, connector.ExchangeMalformed, exchErr.Kind)
}

func TestExchangeCode_MissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"bearer"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(srv.Client())
	_, err := client.ExchangeCode(context.Background(), bodyAuthDescriptor(srv.URL), "code", "")

	var exchErr *connector.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	require.Equal(t, connector.ExchangeMalformed, exchErr.Kind)
}

func TestExchangeCode_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	client := NewHTTPProviderClient(&http.Client{Timeout: time.Second})
	_, err := client.ExchangeCode(context.Background(), bodyAuthDescriptor(srv.URL), "code", "")

	var exchErr *connector.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	require.Equal(t, connector.ExchangeNetwork, exchErr.Kind)
}

func TestExchangeCode_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	client := NewHTTPProviderClient(srv.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.ExchangeCode(ctx, bodyAuthDescriptor(srv.URL), "code", "")

	var exchErr *connector.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	require.Equal(t, connector.ExchangeNetwork, exchErr.Kind)
	require.Equal(t, "token exchange timed out", exchErr.Message)
}

func TestRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		require.Equal(t, "rt-old", r.PostForm.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-new","refresh_token":"rt-new","expires_in":"1800"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(srv.Client())
	token, err := client.RefreshToken(context.Background(), bodyAuthDescriptor(srv.URL), "rt-old")
	require.NoError(t, err)
	require.Equal(t, "at-new", token.AccessToken)
	require.Equal(t, "rt-new", token.RefreshToken)
	// Some providers send expires_in as a string.
	require.Equal(t, int64(1800), token.ExpiresIn)
}

func TestRefreshToken_InvalidGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	client := NewHTTPProviderClient(srv.Client())
	_, err := client.RefreshToken(context.Background(), bodyAuthDescriptor(srv.URL), "revoked")

	var exchErr *connector.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	require.True(t, exchErr.InvalidGrant())
}

func TestExchangeCode_MissingTokenURL(t *testing.T) {
	client := NewHTTPProviderClient(nil)
	desc := bodyAuthDescriptor("")
	_, err := client.ExchangeCode(context.Background(), desc, "code", "")

	var exchErr *connector.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	require.Equal(t, connector.ExchangeMalformed, exchErr.Kind)
}
