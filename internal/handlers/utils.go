package handlers

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

// writeMessage sends a {"message": ...} body, the shape used for every
// non-entity success and every client-visible error.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeInternalError logs the real error and returns a generic message so
// store internals never reach the client.
func writeInternalError(w http.ResponseWriter, op string, err error) {
	log.Errorf("%s: %v", op, err)
	writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
}
