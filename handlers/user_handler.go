package handlers

import (
	"errors"
	"net/http"

	"github.com/secondstrikerr/secondstriker/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) UpdatePhoneNumber(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		PhoneNumber string `json:"phone_number"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PhoneNumber == "" {
		badRequestResponse(w, r, errors.New("phone_number is required"))
		return
	}

	normalized, err := h.userService.UpdatePhoneNumber(r.Context(), userID, input.PhoneNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"phone_number": normalized}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
