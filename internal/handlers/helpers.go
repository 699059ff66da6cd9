package handlers

import (
	"encoding/json"
	"net/http"
)

// RequireMethod rejects requests whose method does not match, writing a 405.
// HEAD is accepted wherever GET is. Returns true when the handler should
// proceed. Dispatched tool calls arrive with the method their registration
// declared, so a mismatch here means a direct HTTP caller got it wrong.
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes the standard error body. Tool callers see this payload
// inside the bridge's non-2xx envelope, so the shape stays stable.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}
