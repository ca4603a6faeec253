// internal/handlers/game.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/thrice/internal/game"
)

// StartGameHandler opens a session. The body may be empty.
//
// Request payload: {} or { "userId": "...", "gameId": 1 }
func StartGameHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req game.StartGameRequest
		if err := decodeJSON(r, &req, true); err != nil {
			badRequest(w, err.Error())
			return
		}
		resp, err := ctrl.StartGame(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// SubmitAnswerHandler scores an answer.
//
// Request payload: { "sessionId": "...", "answer": "..." }
func SubmitAnswerHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req game.AnswerRequest
		if err := decodeJSON(r, &req, false); err != nil {
			badRequest(w, err.Error())
			return
		}
		resp, err := ctrl.SubmitAnswer(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func StatusHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := ctrl.Status(r.Context(), r.PathValue("sessionId"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// CheckAnswerHandler checks an answer against a round without a session.
//
// Request payload: { "roundId": 1, "answer": "...", "clueNumber": 1 }
func CheckAnswerHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req game.CheckAnswerRequest
		if err := decodeJSON(r, &req, false); err != nil {
			badRequest(w, err.Error())
			return
		}
		resp, err := ctrl.CheckAnswer(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
