package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/secondstrikerr/secondstriker/brackets"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin.
		return true
	},
}

type WebSocketHandler struct {
	hub    *brackets.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *brackets.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeLeague подписывает клиента на события лиги.
func (h *WebSocketHandler) ServeLeague(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "leagueID", "league")
}

// ServeTournament подписывает клиента на события турнира.
func (h *WebSocketHandler) ServeTournament(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "tournamentID", "tournament")
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, param, roomPrefix string) {
	id, err := urlParamInt(r, param)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket connection", "room", roomPrefix, "id", id, "error", err)
		return
	}

	h.hub.NewClient(conn, fmt.Sprintf("%s:%d", roomPrefix, id))
}
