package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/taskmaster-dev/task-master/backend/internal/domain"
	"github.com/taskmaster-dev/task-master/backend/internal/session"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("request handled", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				fmt.Print(string(debug.Stack())) // slog would flatten the trace into one line
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// sessionTokens returns the candidate session tokens of r: the cookie first,
// then an Authorization bearer token for clients that do not keep cookies.
func sessionTokens(r *http.Request) []string {
	var tokens []string

	if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if token = strings.TrimSpace(token); ok && strings.EqualFold(scheme, "Bearer") && token != "" && !slices.Contains(tokens, token) {
		tokens = append(tokens, token)
	}

	return tokens
}

// authenticate returns the claims of the first candidate token that verifies
// and has not been logged out. A stale cookie does not shadow a valid header.
func (h *Handler) authenticate(r *http.Request) (*session.Claims, error) {
	tokens := sessionTokens(r)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: user is not logged in", domain.ErrUnauthorized)
	}

	var lastErr error
	for _, token := range tokens {
		claims, err := h.issuer.Verify(token)
		if err != nil {
			lastErr = err
			continue
		}

		revoked, err := h.denylist.IsRevoked(claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			lastErr = fmt.Errorf("%w: session has been logged out", domain.ErrUnauthorized)
			continue
		}

		return claims, nil
	}

	return nil, lastErr
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.authenticate(r)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityCtxKey, claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) RequiredRole(role domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity(r).Role != role {
				h.errorResponse(w, r, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
