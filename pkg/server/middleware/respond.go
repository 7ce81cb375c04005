package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the same error body as the endpoints package
func writeError(w http.ResponseWriter, code int, msg string) {
	body, _ := json.Marshal(map[string]interface{}{"error": map[string]string{"error": msg}})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
