package api

import (
	"encoding/json/v2"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	domainerrors "github.com/scoredeck/scoredeck-server/internal/errors"
	"github.com/scoredeck/scoredeck-server/internal/realtime"
)

const (
	// livePingInterval keeps intermediaries from timing out idle streams.
	livePingInterval = 30 * time.Second
	// liveWriteTimeout bounds a single frame write to a slow client.
	liveWriteTimeout = 10 * time.Second
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin from arbitrary dashboards;
	// the bearer token is the access control, not the Origin header.
	CheckOrigin: func(*http.Request) bool { return true },
}

// registerLiveRoutes wires the WebSocket endpoint straight onto the chi
// router. The upgrade hijacks the connection, which huma's request
// model cannot express.
func (s *Server) registerLiveRoutes() {
	s.router.Get("/api/scoreboards/{id}/live", s.handleLive)
}

// handleLive upgrades to a WebSocket and streams the scoreboard's events
// until the client disconnects. WebSocket clients cannot set headers, so
// the bearer token is also accepted as a query parameter.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if auth := r.Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
			token = auth[7:]
		}
	}
	if token == "" {
		writeProblem(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}

	if _, _, err := s.services.Auth.VerifyAccessToken(r.Context(), token); err != nil {
		writeProblem(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	scoreboardID := chi.URLParam(r, "id")
	if _, err := s.services.Scoreboard.GetScoreboard(r.Context(), scoreboardID); err != nil {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			writeProblem(w, domainErr.HTTPStatus(), domainErr.Message)
		} else {
			writeProblem(w, http.StatusInternalServerError, "Failed to load scoreboard")
		}
		return
	}

	sub, err := s.hub.Subscribe(scoreboardID)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}

	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		s.hub.Unsubscribe(sub.ID)
		return
	}
	defer func() {
		s.hub.Unsubscribe(sub.ID)
		_ = conn.Close()
	}()

	// Reader goroutine: the client sends nothing meaningful, but the
	// read loop is how gorilla surfaces close frames and dead peers.
	readClosed := make(chan struct{})
	go func() {
		defer close(readClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(livePingInterval)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, realtime.MarshalEvent(event)); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sub.Done:
			return
		case <-readClosed:
			return
		}
	}
}

// writeProblem serves an RFC 7807 problem document for failures before
// the WebSocket upgrade, matching the shape huma produces everywhere else.
func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	body, _ := json.Marshal(map[string]any{
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
	_, _ = w.Write(body)
}
