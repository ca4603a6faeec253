package handlers

import (
	"net/http"

	"github.com/jason-s-yu/thrice/internal/game"
)

// StartPlayHandler starts a player's session on a game.
//
// Request payload: { "userId": "..." }
func StartPlayHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req game.PlayRequest
		if err := decodeJSON(r, &req, false); err != nil {
			badRequest(w, err.Error())
			return
		}
		resp, err := ctrl.StartPlay(r.Context(), r.PathValue("id"), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// PlayStateHandler serves GET /api/play/{id}?userId=.
func PlayStateHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := ctrl.PlayState(r.Context(), r.PathValue("id"), r.URL.Query().Get("userId"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// UpdatePlayHandler reveals a clue or advances the round.
//
// Request payload: { "userId": "...", "action": "reveal_clue"|"next_round", "roundId": 1, "clueNumber"?: 1 }
func UpdatePlayHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req game.PlayUpdateRequest
		if err := decodeJSON(r, &req, false); err != nil {
			badRequest(w, err.Error())
			return
		}
		resp, err := ctrl.UpdatePlay(r.Context(), r.PathValue("id"), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
