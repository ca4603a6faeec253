package handlers

import (
	"net/http"
	"strconv"

	"github.com/jason-s-yu/thrice/internal/game"
	"github.com/jason-s-yu/thrice/internal/models"
)

// ListGamesHandler serves GET /api/games?limit=&offset=&search=.
func ListGamesHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		req := game.ListGamesRequest{Search: q.Get("search")}
		var err error
		if s := q.Get("limit"); s != "" {
			if req.Limit, err = strconv.Atoi(s); err != nil {
				badRequest(w, "limit must be an integer")
				return
			}
		}
		if s := q.Get("offset"); s != "" {
			if req.Offset, err = strconv.Atoi(s); err != nil {
				badRequest(w, "offset must be an integer")
				return
			}
		}
		resp, err := ctrl.ListGames(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func GetGameHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := ctrl.GetGame(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

// CreateGameHandler stores a new game with its rounds and clues.
//
// Request payload: a Game without ids; the slug is derived from the title.
func CreateGameHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var g models.Game
		if err := decodeJSON(r, &g, false); err != nil {
			badRequest(w, err.Error())
			return
		}
		resp, err := ctrl.CreateGame(r.Context(), &g)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// UpdateGameHandler applies a partial update.
//
// Request payload: { "title"?: "...", "published"?: "YYYY-MM-DD", "is_active"?: bool }
func UpdateGameHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req game.UpdateGameRequest
		if err := decodeJSON(r, &req, false); err != nil {
			badRequest(w, err.Error())
			return
		}
		if err := ctrl.UpdateGame(r.Context(), r.PathValue("id"), req); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteGameHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctrl.DeleteGame(r.Context(), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
