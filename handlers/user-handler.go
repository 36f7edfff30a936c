package handlers

import (
	"net/http"

	"taskmanager/backend/response"
	"taskmanager/backend/services"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	users *services.UserService
	resp  *response.Responder
}

func NewUserHandler(users *services.UserService, resp *response.Responder) *UserHandler {
	return &UserHandler{users: users, resp: resp}
}

func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	members, err := h.users.ListMembers(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Get list user successfully", members)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Get user information successfully", user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.users.DeleteUser(r.Context(), caller, id); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Delete user successfully", map[string]string{
		"message": "User with ID " + id + " deleted successfully",
	})
}
