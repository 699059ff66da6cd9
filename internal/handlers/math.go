package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/toolbridge/toolbridge/internal/common"
)

// MathHandler serves the demo math endpoints that back the local tools.
type MathHandler struct {
	logger *common.Logger
}

// NewMathHandler creates a new math handler.
func NewMathHandler(logger *common.Logger) *MathHandler {
	return &MathHandler{logger: logger}
}

// Multiply handles GET /api/multiply?a=..&b=..
func (h *MathHandler) Multiply(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	a, errA := strconv.ParseFloat(r.URL.Query().Get("a"), 64)
	b, errB := strconv.ParseFloat(r.URL.Query().Get("b"), 64)
	if errA != nil || errB != nil {
		WriteError(w, http.StatusBadRequest, "a and b must be numbers")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"operation": "multiply",
		"a":         a,
		"b":         b,
		"result":    a * b,
	})
}

// Add handles POST /api/add with a JSON body {"a": .., "b": ..}.
func (h *MathHandler) Add(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var input struct {
		A *float64 `json:"a"`
		B *float64 `json:"b"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if input.A == nil || input.B == nil {
		WriteError(w, http.StatusBadRequest, "a and b are required")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"operation": "add",
		"result":    *input.A + *input.B,
	})
}

// Subtract handles GET /api/subtract?a=..&b=..
// The Authorization header arrives via the bridge's header forwarding; this
// endpoint reports whether one was present, standing in for upstream auth
// middleware.
func (h *MathHandler) Subtract(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	a, errA := strconv.ParseFloat(r.URL.Query().Get("a"), 64)
	b, errB := strconv.ParseFloat(r.URL.Query().Get("b"), 64)
	if errA != nil || errB != nil {
		WriteError(w, http.StatusBadRequest, "a and b must be numbers")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"operation":  "subtract",
		"result":     a - b,
		"authorized": r.Header.Get("Authorization") != "",
	})
}

// Hello handles GET /api/hello.
func (h *MathHandler) Hello(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Hello from toolbridge!",
	})
}
