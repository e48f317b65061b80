package handler

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kasinadhsarma/vectorshift/internal/domain/connector"
	connectorsvc "github.com/kasinadhsarma/vectorshift/internal/service/connector"
	"github.com/kasinadhsarma/vectorshift/internal/service/dashboard"
)

// ConnectorHandler marshals HTTP requests into connector facade calls. All
// protocol decisions live in the services; this layer only translates.
type ConnectorHandler struct {
	Connectors connectorsvc.Service
	Dashboard  *dashboard.Service
	Logger     *zap.Logger
}

// NewConnectorHandler creates the handler set.
func NewConnectorHandler(connectors connectorsvc.Service, dash *dashboard.Service, logger *zap.Logger) *ConnectorHandler {
	return &ConnectorHandler{Connectors: connectors, Dashboard: dash, Logger: logger}
}

// ListProviders returns the configured providers the frontend can offer.
func (h *ConnectorHandler) ListProviders(c *gin.Context) {
	descriptors := h.Connectors.Providers()
	providers := make([]gin.H, 0, len(descriptors))
	for _, desc := range descriptors {
		providers = append(providers, gin.H{
			"provider":    desc.Name,
			"displayName": desc.DisplayName,
		})
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

type authorizeRequest struct {
	UserID string `json:"userId" binding:"required"`
	OrgID  string `json:"orgId" binding:"required"`
}

// Authorize starts an authorization flow and returns the redirect URL for
// the front end's popup.
func (h *ConnectorHandler) Authorize(c *gin.Context) {
	var req authorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "userId and orgId are required."})
		return
	}

	auth, err := h.Connectors.BeginAuthorization(c.Request.Context(), c.Param("provider"), req.UserID, req.OrgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": auth.URL})
}

// Callback handles the provider redirect. The engine returns a structured
// result; the small popup-close page rendered here is UI plumbing only.
func (h *ConnectorHandler) Callback(c *gin.Context) {
	providerName := c.Param("provider")
	in := connectorsvc.CallbackInput{
		Code:             c.Query("code"),
		State:            c.Query("state"),
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	}

	if _, err := h.Connectors.CompleteAuthorization(c.Request.Context(), providerName, in); err != nil {
		h.renderCallbackPage(c, providerName, err)
		return
	}
	h.renderCallbackPage(c, providerName, nil)
}

// Status reports whether the provider is connected for the principal.
func (h *ConnectorHandler) Status(c *gin.Context) {
	userID, orgID, ok := principalFromQuery(c)
	if !ok {
		return
	}
	status, err := h.Dashboard.Status(c.Request.Context(), c.Param("provider"), userID, orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Data returns the provider's normalized items for the principal.
func (h *ConnectorHandler) Data(c *gin.Context) {
	userID, orgID, ok := principalFromQuery(c)
	if !ok {
		return
	}
	items, err := h.Dashboard.Items(c.Request.Context(), c.Param("provider"), userID, orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Disconnect removes the stored credential bundle.
func (h *ConnectorHandler) Disconnect(c *gin.Context) {
	userID, orgID, ok := principalFromQuery(c)
	if !ok {
		return
	}
	if err := h.Connectors.Disconnect(c.Request.Context(), c.Param("provider"), userID, orgID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// UserDashboard returns the connection matrix across all providers.
func (h *ConnectorHandler) UserDashboard(c *gin.Context) {
	orgID := strings.TrimSpace(c.Query("orgId"))
	if orgID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "orgId is required."})
		return
	}
	overview, err := h.Dashboard.Overview(c.Request.Context(), c.Param("userId"), orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"integrations": overview})
}

func principalFromQuery(c *gin.Context) (userID, orgID string, ok bool) {
	userID = strings.TrimSpace(c.Query("userId"))
	orgID = strings.TrimSpace(c.Query("orgId"))
	if userID == "" || orgID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "userId and orgId are required."})
		return "", "", false
	}
	return userID, orgID, true
}

func (h *ConnectorHandler) respondError(c *gin.Context, err error) {
	var providerErr *connector.ProviderError
	var exchErr *connector.ExchangeError

	switch {
	case errors.Is(err, connector.ErrProviderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_provider", "error_description": "No such provider."})
	case errors.Is(err, connector.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "provider_not_configured", "error_description": "Provider is not fully configured."})
	case errors.Is(err, connector.ErrStateMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "state_mismatch", "error_description": "Authorization expired or was tampered with. Please reconnect."})
	case errors.Is(err, connector.ErrNotConnected):
		c.JSON(http.StatusBadRequest, gin.H{"error": "not_connected", "error_description": "Provider is not connected."})
	case errors.As(err, &providerErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": providerErr.Code, "error_description": providerErr.Description})
	case errors.As(err, &exchErr):
		h.log().Warn("token exchange error", zap.String("kind", string(exchErr.Kind)), zap.Int("status", exchErr.Status))
		c.JSON(http.StatusBadGateway, gin.H{"error": "exchange_failed", "error_description": "Token exchange with the provider failed. Please retry the connection."})
	default:
		h.log().Error("connector request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Unexpected error."})
	}
}

// renderCallbackPage emits the popup page that notifies the opener and
// closes itself.
func (h *ConnectorHandler) renderCallbackPage(c *gin.Context, providerName string, err error) {
	messageType := strings.ToUpper(providerName) + "_AUTH_SUCCESS"
	body := "Authentication successful! You can close this window."
	status := http.StatusOK

	if err != nil {
		messageType = strings.ToUpper(providerName) + "_AUTH_ERROR"
		body = "Authentication failed: " + html.EscapeString(userFacingMessage(err))
		status = http.StatusBadRequest
		h.log().Warn("authorization callback failed", zap.String("provider", providerName), zap.Error(err))
	}

	page := fmt.Sprintf(`<html>
<script>
if (window.opener) {
	window.opener.postMessage({ type: %q }, "*");
	window.close();
}
</script>
<body>%s</body>
</html>`, messageType, body)

	c.Data(status, "text/html; charset=utf-8", []byte(page))
}

func userFacingMessage(err error) string {
	var providerErr *connector.ProviderError
	switch {
	case errors.As(err, &providerErr):
		if providerErr.Description != "" {
			return providerErr.Description
		}
		return providerErr.Code
	case errors.Is(err, connector.ErrStateMismatch):
		return "authorization expired or was tampered with"
	default:
		return "could not complete the connection"
	}
}

func (h *ConnectorHandler) log() *zap.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return zap.L()
}
