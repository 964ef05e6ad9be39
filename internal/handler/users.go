package handler

import (
	"net/http"
)

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(identity(r).ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "user fetched successfully", user)
}

func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "users fetched successfully", users)
}
