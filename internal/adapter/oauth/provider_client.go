package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kasinadhsarma/vectorshift/internal/domain/connector"
)

// ProviderClient encapsulates outbound HTTP calls to provider token
// endpoints. Errors are always *connector.ExchangeError so callers can
// classify failures without touching raw provider responses.
type ProviderClient interface {
	ExchangeCode(ctx context.Context, desc connector.Descriptor, code, codeVerifier string) (*connector.TokenResponse, error)
	RefreshToken(ctx context.Context, desc connector.Descriptor, refreshToken string) (*connector.TokenResponse, error)
}

// HTTPProviderClient is the default HTTP implementation.
type HTTPProviderClient struct {
	httpClient *http.Client
}

// NewHTTPProviderClient constructs the default ProviderClient.
func NewHTTPProviderClient(client *http.Client) *HTTPProviderClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPProviderClient{httpClient: client}
}

// ExchangeCode performs the authorization-code token exchange.
func (c *HTTPProviderClient) ExchangeCode(ctx context.Context, desc connector.Descriptor, code, codeVerifier string) (*connector.TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", desc.RedirectURI)
	if strings.TrimSpace(codeVerifier) != "" {
		data.Set("code_verifier", codeVerifier)
	}
	return c.post(ctx, desc, data)
}

// RefreshToken performs a refresh-token grant against the same endpoint.
func (c *HTTPProviderClient) RefreshToken(ctx context.Context, desc connector.Descriptor, refreshToken string) (*connector.TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	return c.post(ctx, desc, data)
}

func (c *HTTPProviderClient) post(ctx context.Context, desc connector.Descriptor, data url.Values) (*connector.TokenResponse, error) {
	if strings.TrimSpace(desc.TokenURL) == "" {
		return nil, &connector.ExchangeError{Kind: connector.ExchangeMalformed, Message: "token url missing"}
	}

	// Client credentials travel either in the form body or as a Basic
	// header, per provider convention.
	switch desc.AuthStyle {
	case connector.ClientAuthBasic:
	default:
		data.Set("client_id", desc.ClientID)
		if desc.ClientSecret != "" {
			data.Set("client_secret", desc.ClientSecret)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, desc.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &connector.ExchangeError{Kind: connector.ExchangeNetwork, Message: "build token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if desc.AuthStyle == connector.ClientAuthBasic {
		req.SetBasicAuth(desc.ClientID, desc.ClientSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &connector.ExchangeError{Kind: connector.ExchangeNetwork, Message: networkErrorMessage(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &connector.ExchangeError{Kind: connector.ExchangeNetwork, Message: "read token response", Err: err}
	}

	var raw map[string]any
	decodeErr := json.Unmarshal(body, &raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		exchErr := &connector.ExchangeError{
			Kind:    connector.ExchangeHTTP,
			Message: fmt.Sprintf("token endpoint returned status %d", resp.StatusCode),
			Status:  resp.StatusCode,
			Body:    string(body),
		}
		if decodeErr == nil {
			exchErr.Code = stringValue(raw["error"])
			if desc := stringValue(raw["error_description"]); desc != "" {
				exchErr.Message = desc
			}
		}
		return nil, exchErr
	}

	if decodeErr != nil {
		return nil, &connector.ExchangeError{
			Kind:    connector.ExchangeMalformed,
			Message: "decode token response",
			Status:  resp.StatusCode,
			Body:    string(body),
			Err:     decodeErr,
		}
	}

	// Some providers (Slack) answer 200 with an embedded error marker.
	if ok, present := raw["ok"].(bool); present && !ok {
		return nil, &connector.ExchangeError{
			Kind:    connector.ExchangeProvider,
			Code:    stringValue(raw["error"]),
			Message: fmt.Sprintf("provider rejected exchange: %s", stringValue(raw["error"])),
			Status:  resp.StatusCode,
			Body:    string(body),
		}
	}
	if errCode := stringValue(raw["error"]); errCode != "" {
		msg := stringValue(raw["error_description"])
		if msg == "" {
			msg = fmt.Sprintf("provider rejected exchange: %s", errCode)
		}
		return nil, &connector.ExchangeError{
			Kind:    connector.ExchangeProvider,
			Code:    errCode,
			Message: msg,
			Status:  resp.StatusCode,
			Body:    string(body),
		}
	}

	token := &connector.TokenResponse{
		AccessToken:  stringValue(raw["access_token"]),
		RefreshToken: stringValue(raw["refresh_token"]),
		TokenType:    stringValue(raw["token_type"]),
		Scope:        stringValue(raw["scope"]),
		ExpiresIn:    int64Value(raw["expires_in"]),
		Raw:          raw,
	}
	if token.AccessToken == "" {
		return nil, &connector.ExchangeError{
			Kind:    connector.ExchangeMalformed,
			Message: "token response missing access_token",
			Status:  resp.StatusCode,
			Body:    string(body),
		}
	}
	return token, nil
}

func networkErrorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "token exchange timed out"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "token exchange timed out"
	}
	return "token exchange request failed"
}

func stringValue(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func int64Value(input any) int64 {
	switch v := input.(type) {
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
