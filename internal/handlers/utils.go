package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jason-s-yu/thrice/internal/game"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders a controller error as {"error": message} with the status of its kind.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, game.KindOf(err).HTTPStatus(), errorBody{Error: game.PublicMessage(err)})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
// An empty body is accepted only when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return nil
			}
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid payload: %w", err)
	}
	if dec.More() {
		return errors.New("invalid payload: trailing data")
	}
	return nil
}
