package http

import (
	"github.com/gin-gonic/gin"

	"max-notify/internal/middleware"
)

// RegisterRoutes maps the journal endpoints under rg. Every route requires the API token.
func RegisterRoutes(rg *gin.RouterGroup, h Handler, mw middleware.Middleware) {
	rg.GET("/events", mw.Auth(), h.List)
}
