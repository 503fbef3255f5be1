package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	journalHTTP "max-notify/internal/journal/delivery/http"
	"max-notify/internal/middleware"
	"max-notify/internal/model"
)

func (srv *HTTPServer) mapHandlers() error {
	mw := middleware.New(srv.l, srv.apiToken)

	srv.registerMiddlewares(mw)
	srv.registerSystemRoutes()

	if err := srv.registerDomainRoutes(mw); err != nil {
		return err
	}

	srv.handler = srv.mountStream(mw)
	return nil
}

func (srv *HTTPServer) registerMiddlewares(mw middleware.Middleware) {
	srv.gin.Use(gin.Recovery(), mw.RequestID(), mw.AccessLog())

	ctx := context.Background()
	if srv.environment == string(model.EnvironmentProduction) {
		srv.l.Infof(ctx, "HTTP mode: production")
	} else {
		srv.l.Infof(ctx, "HTTP mode: %s", srv.environment)
	}
}

func (srv *HTTPServer) registerSystemRoutes() {
	srv.gin.GET("/health", srv.healthCheck)
	srv.gin.GET("/ready", srv.readyCheck)
	srv.gin.GET("/live", srv.liveCheck)

	srv.gin.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))
}

// registerDomainRoutes registers the Max webhook and the event journal route.
func (srv *HTTPServer) registerDomainRoutes(mw middleware.Middleware) error {
	ctx := context.Background()
	api := srv.gin.Group(srv.pathPrefix)

	api.POST("/:entry_id", srv.webhookHandler.HandleMaxWebhook)
	srv.l.Infof(ctx, "Max webhook route registered at POST %s/:entry_id", srv.pathPrefix)

	switch {
	case srv.eventsHandler == nil:
		srv.l.Infof(ctx, "Event journal not configured, skipping events route")
	case srv.apiToken == "":
		srv.l.Warnf(ctx, "events.api_token not set, skipping events route")
	default:
		journalHTTP.RegisterRoutes(api, srv.eventsHandler, mw)
		srv.l.Infof(ctx, "Event journal route registered at GET %s/events", srv.pathPrefix)
	}

	return nil
}

// mountStream puts the websocket stream in front of gin. The upgrade needs to
// hijack the raw connection, which gin's response writer does not allow.
func (srv *HTTPServer) mountStream(mw middleware.Middleware) http.Handler {
	ctx := context.Background()
	if srv.streamHandler == nil {
		return srv.gin
	}
	if srv.apiToken == "" {
		srv.l.Warnf(ctx, "events.api_token not set, skipping event stream route")
		return srv.gin
	}

	path := srv.pathPrefix + "/events/stream"
	mux := http.NewServeMux()
	mux.Handle("GET "+path, mw.AuthHandler(srv.streamHandler))
	mux.Handle("/", srv.gin)
	srv.l.Infof(ctx, "Event stream route registered at GET %s", path)
	return mux
}
