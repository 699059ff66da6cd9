package handlers

import (
	"net/http"

	"github.com/toolbridge/toolbridge/internal/common"
)

// ItemsHandler serves the demo item lookup endpoint, exercising path
// parameter routing end to end.
type ItemsHandler struct {
	logger *common.Logger
	items  map[string]Item
}

// Item is one demo inventory record.
type Item struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// NewItemsHandler creates a new items handler with a small fixed inventory.
func NewItemsHandler(logger *common.Logger) *ItemsHandler {
	return &ItemsHandler{
		logger: logger,
		items: map[string]Item{
			"1": {ID: "1", Name: "widget", Price: 9.95},
			"2": {ID: "2", Name: "gadget", Price: 24.50},
			"3": {ID: "3", Name: "sprocket", Price: 3.25},
		},
	}
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := r.PathValue("id")
	item, ok := h.items[id]
	if !ok {
		WriteError(w, http.StatusNotFound, "item not found")
		return
	}

	WriteJSON(w, http.StatusOK, item)
}
