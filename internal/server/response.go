package server

import (
	"encoding/json"
	"net/http"
)

// writeJSON encodes v as the response body with the given status code,
// matching the teacher's tradernet-sdk handler convention of a single
// envelope-then-encode call per handler.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"status": "error",
		"error":  message,
	})
}
