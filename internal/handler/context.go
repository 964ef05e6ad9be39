package handler

import (
	"net/http"

	"github.com/taskmaster-dev/task-master/backend/internal/domain"
)

type ContextKey string

var IdentityCtxKey ContextKey = "identity"

func identity(r *http.Request) domain.Identity {
	return r.Context().Value(IdentityCtxKey).(domain.Identity)
}
