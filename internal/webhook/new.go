package webhook

import (
	pkgLog "max-notify/pkg/log"
)

type Handler struct {
	instances InstanceLookup
	ingest    Submitter
	security  *SecurityValidator
	l         pkgLog.Logger
}

func NewHandler(
	instances InstanceLookup,
	ingest Submitter,
	securityConfig SecurityConfig,
	l pkgLog.Logger,
) *Handler {
	return &Handler{
		instances: instances,
		ingest:    ingest,
		security:  NewSecurityValidator(securityConfig),
		l:         l,
	}
}
