package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError matches the {"error": "..."} body the form and admin handlers use.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
