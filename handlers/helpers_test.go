package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondstrikerr/secondstriker/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrUserNotFound, http.StatusNotFound},
		{services.ErrCompetitionNotFound, http.StatusNotFound},
		{services.ErrFixtureNotFound, http.StatusNotFound},
		{services.ErrJoinRequestNotFound, http.StatusNotFound},
		{services.ErrEmailTaken, http.StatusConflict},
		{services.ErrUsernameTaken, http.StatusConflict},
		{services.ErrAlreadyMember, http.StatusConflict},
		{services.ErrCompetitionFull, http.StatusConflict},
		{services.ErrDuplicateJoinRequest, http.StatusConflict},
		{services.ErrJoinRequestResolved, http.StatusConflict},
		{services.ErrInvalidStatusTransition, http.StatusPreconditionFailed},
		{services.ErrFixturesIncomplete, http.StatusPreconditionFailed},
		{services.ErrTieUnresolved, http.StatusPreconditionFailed},
		{services.ErrFixtureAlreadyDecided, http.StatusPreconditionFailed},
		{services.ErrNotEnoughMembers, http.StatusPreconditionFailed},
		{services.ErrJoinRequestExpired, http.StatusPreconditionFailed},
		{services.ErrValidation, http.StatusBadRequest},
		{services.ErrScoresRequired, http.StatusBadRequest},
		{services.ErrInvalidOTP, http.StatusBadRequest},
		{services.ErrPhoneNumberRequired, http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrNotCreator, http.StatusForbidden},
		{services.ErrNotMember, http.StatusForbidden},
		{services.ErrEmailNotVerified, http.StatusForbidden},
		{services.ErrInsufficientBalance, http.StatusPaymentRequired},
		{services.ErrPaymentGateway, http.StatusBadGateway},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/leagues", nil)

			mapServiceErrorToHTTP(rec, req, tt.err)

			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		})
	}
}

func TestMapServiceErrorToHTTPWrappedError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leagues", nil)

	// Сервисы оборачивают сентинелы через %w — маппинг обязан видеть цепочку.
	wrapped := errors.Join(errors.New("details"), services.ErrValidation)
	mapServiceErrorToHTTP(rec, req, wrapped)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name": "Cup"}`, ""},
		{"empty body", ``, "body must not be empty"},
		{"malformed", `{"name": `, "badly-formed JSON"},
		{"unknown field", `{"surname": "x"}`, "unknown key"},
		{"wrong type", `{"name": 5}`, "incorrect JSON type for field"},
		{"two documents", `{"name": "a"}{"name": "b"}`, "single JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst payload
			err := readJSON(rec, req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Cup", dst.Name)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteJSONSetsHeaders(t *testing.T) {
	rec := httptest.NewRecorder()

	err := writeJSON(rec, http.StatusCreated, jsonResponse{"id": 7}, http.Header{
		"Location": []string{"/leagues/7"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "/leagues/7", rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), `"id": 7`)
}

func TestURLParamInt(t *testing.T) {
	newReq := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("leagueID", value)
		req := httptest.NewRequest(http.MethodGet, "/leagues/"+value, nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := urlParamInt(newReq("15"), "leagueID")
	require.NoError(t, err)
	assert.Equal(t, 15, id)

	_, err = urlParamInt(newReq("abc"), "leagueID")
	assert.Error(t, err)

	_, err = urlParamInt(newReq("0"), "leagueID")
	assert.Error(t, err)

	_, err = urlParamInt(newReq("-3"), "leagueID")
	assert.Error(t, err)
}
