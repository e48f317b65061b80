package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/kasinadhsarma/vectorshift/internal/config"
	"github.com/kasinadhsarma/vectorshift/internal/http/handler"
	httpmiddleware "github.com/kasinadhsarma/vectorshift/internal/http/middleware"
	"github.com/kasinadhsarma/vectorshift/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, connectorHandler *handler.ConnectorHandler, authMiddleware *httpmiddleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		integrations := api.Group("/integrations")
		{
			// The provider redirects the browser here; there is no session
			// on that request, so the callback stays unauthenticated.
			integrations.GET("/:provider/oauth2callback", connectorHandler.Callback)

			authed := integrations.Group("", authMiddleware.ValidateSession)
			{
				authed.GET("", connectorHandler.ListProviders)
				authed.POST("/:provider/authorize", connectorHandler.Authorize)
				authed.GET("/:provider/status", connectorHandler.Status)
				authed.GET("/:provider/data", connectorHandler.Data)
				authed.DELETE("/:provider", connectorHandler.Disconnect)
			}
		}

		api.GET("/users/:userId/dashboard", authMiddleware.ValidateSession, connectorHandler.UserDashboard)
	}

	return r
}
