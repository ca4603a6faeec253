// internal/handlers/api_server.go
package handlers

import (
	"net/http"
	"time"

	"github.com/jason-s-yu/thrice/internal/game"
	"github.com/jason-s-yu/thrice/internal/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter wires every API route onto a ServeMux wrapped in request
// logging and panic recovery.
func NewRouter(ctrl *game.Controller, logger *logrus.Logger, version string) http.Handler {
	mux := http.NewServeMux()

	// sessions
	mux.HandleFunc("POST /api/game/start", StartGameHandler(ctrl))
	mux.HandleFunc("POST /api/game/answer", SubmitAnswerHandler(ctrl))
	mux.HandleFunc("GET /api/game/{sessionId}/status", StatusHandler(ctrl))

	// catalog
	mux.HandleFunc("GET /api/games", ListGamesHandler(ctrl))
	mux.HandleFunc("POST /api/games", CreateGameHandler(ctrl))
	mux.HandleFunc("GET /api/games/{id}", GetGameHandler(ctrl))
	mux.HandleFunc("PATCH /api/games/{id}", UpdateGameHandler(ctrl))
	mux.HandleFunc("DELETE /api/games/{id}", DeleteGameHandler(ctrl))

	// play
	mux.HandleFunc("POST /api/play/{id}", StartPlayHandler(ctrl))
	mux.HandleFunc("GET /api/play/{id}", PlayStateHandler(ctrl))
	mux.HandleFunc("PATCH /api/play/{id}", UpdatePlayHandler(ctrl))
	mux.HandleFunc("POST /api/answer", CheckAnswerHandler(ctrl))

	mux.HandleFunc("GET /health", HealthHandler(version))
	mux.HandleFunc("/", NotFoundHandler)

	return middleware.LogMiddleware(logger)(middleware.Recover(logger)(mux))
}

func HealthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   version,
		})
	}
}

// NotFoundHandler answers every unmatched route.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"status":  http.StatusNotFound,
		"message": "Route not found",
		"path":    r.URL.Path,
	})
}
