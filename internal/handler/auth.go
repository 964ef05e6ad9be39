package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/taskmaster-dev/task-master/backend/internal/domain"
	"github.com/taskmaster-dev/task-master/backend/internal/service"
	"github.com/taskmaster-dev/task-master/backend/internal/session"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := h.readJSON(w, r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}

	user, err := h.users.Register(req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.publish(domain.MailMessage{
		Type: domain.MailTypeWelcome,
		To:   user.Email,
		Data: domain.WelcomeMailData{Username: user.Username},
	})

	h.successResponse(w, r, http.StatusCreated, "user registered successfully", user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := h.readJSON(w, r, &req); err != nil {
		h.invalidBody(w, r)
		return
	}

	user, err := h.users.Authenticate(req)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	token, expiration, err := h.issuer.Issue(user)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, expiration))

	h.successResponse(w, r, http.StatusOK, "login successful", map[string]any{
		"user":      user,
		"token":     token,
		"expiresAt": expiration,
	})
}

// Logout always clears the cookie. Every presented token that still verifies
// is also revoked so a copy of it stops working.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", time.Unix(0, 0)))

	for _, token := range sessionTokens(r) {
		claims, err := h.issuer.Verify(token)
		if err != nil {
			continue
		}
		if err := h.denylist.Revoke(claims.ID, claims.ExpiresAt.Time); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, http.StatusOK, "logout successful", nil)
}

func (h *Handler) sessionCookie(value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}
	if value == "" {
		cookie.MaxAge = -1
	}

	return cookie
}

// publish queues m. The request that triggered it has already been
// persisted, so a failure is only logged.
func (h *Handler) publish(m domain.MailMessage) {
	if err := h.mail.Publish(m); err != nil {
		slog.Warn("failed to queue mail", "type", m.Type, "to", m.To, "error", err)
	}
}
