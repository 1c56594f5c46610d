// Package respond writes the JSON envelopes shared by handlers and middleware.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/timgst1/coffeeshop/internal/authn"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   any    `json:"error"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"success": false, "error": code, "message": message}.
// code is the numeric status for generic errors and a string for auth errors.
func Error(w http.ResponseWriter, status int, code any, message string) {
	JSON(w, status, errorBody{Success: false, Error: code, Message: message})
}

func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, http.StatusNotFound, "resource not found")
}

func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, http.StatusMethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed")
}

func Unprocessable(w http.ResponseWriter) {
	Error(w, http.StatusUnprocessableEntity, http.StatusUnprocessableEntity, "unprocessable")
}

func AuthError(w http.ResponseWriter, err *authn.AuthError) {
	if err.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	Error(w, err.Status, err.Code, err.Description)
}
