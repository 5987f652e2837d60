package handlers

import (
	"fmt"
	"net/http"

	"github.com/secondstrikerr/secondstriker/models"
	"github.com/secondstrikerr/secondstriker/services"
)

type JoinRequestHandler struct {
	joinRequestService *services.JoinRequestService
}

func NewJoinRequestHandler(joinRequestService *services.JoinRequestService) *JoinRequestHandler {
	return &JoinRequestHandler{joinRequestService: joinRequestService}
}

func (h *JoinRequestHandler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		ReferenceID   int                    `json:"reference_id"`
		ReferenceType models.CompetitionType `json:"reference_type"`
		UserID        int                    `json:"user_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ReferenceType != models.CompetitionLeague && input.ReferenceType != models.CompetitionTournament {
		badRequestResponse(w, r, fmt.Errorf("unknown reference_type %q", input.ReferenceType))
		return
	}

	request, err := h.joinRequestService.Invite(r.Context(), userID, input.ReferenceType, input.ReferenceID, input.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"join_request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *JoinRequestHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	requestID, err := urlParamInt(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Accept bool `json:"accept"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.joinRequestService.Respond(r.Context(), userID, requestID, input.Accept)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"join_request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *JoinRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	requests, err := h.joinRequestService.ListByUser(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"join_requests": requests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
