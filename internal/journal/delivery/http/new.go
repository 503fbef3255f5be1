package http

import (
	"github.com/gin-gonic/gin"

	"max-notify/internal/journal"
	"max-notify/pkg/log"
)

// Handler is the public interface for the journal HTTP delivery layer.
type Handler interface {
	List(c *gin.Context)
}

type handler struct {
	l    log.Logger
	repo journal.Repository
}

// New creates the journal handler. A nil repo answers 503.
func New(l log.Logger, repo journal.Repository) Handler {
	return &handler{
		l:    l,
		repo: repo,
	}
}
