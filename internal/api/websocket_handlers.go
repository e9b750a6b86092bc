package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"imagestore/internal/websocket"
)

// @Summary      Image event stream
// @Description  Upgrades to a websocket that receives image_uploaded and image_deleted events for the token's user. Browsers cannot set headers on websocket requests, so the token travels in the query string.
// @Tags         events
// @Param        token  query     string  true  "Session token"
// @Success      101    {object}  models.ImageEvent
// @Failure      401    {string}  string "Unauthorized"
// @Router       /ws [get]
func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		s.logger.DebugContext(r.Context(), "ws connection attempt with invalid token", slog.Any("error", err))
		unauthorized(w)
		return
	}

	if s.wsHub == nil {
		http.Error(w, "Event stream unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := websocket.NewClient(s.wsHub, conn, claims.Username())
	s.wsHub.Register <- client

	go client.ReadPump()
	go client.WritePump()
}

// @Summary      Health check
// @Description  Reports whether the server can reach its database.
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string "OK"
// @Failure      503  {string}  string "Database unavailable"
// @Router       /health [get]
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
		http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}
