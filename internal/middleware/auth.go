package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"max-notify/pkg/response"
)

// Auth requires "Authorization: Bearer <api token>".
func (m Middleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authorized(c.Request) {
			m.l.Warnf(c.Request.Context(), "middleware: unauthorized %s %s from %s", c.Request.Method, c.FullPath(), c.ClientIP())
			response.Unauthorized(c)
			return
		}
		c.Next()
	}
}

// AuthHandler applies the same check to a handler served outside gin.
func (m Middleware) AuthHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.authorized(r) {
			m.l.Warnf(r.Context(), "middleware: unauthorized %s %s", r.Method, r.URL.Path)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(response.NewUnauthorizedResp())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) authorized(r *http.Request) bool {
	if m.apiToken == "" {
		return false
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(m.apiToken)) == 1
}
