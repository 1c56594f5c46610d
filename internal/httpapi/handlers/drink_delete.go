package handlers

import (
	"net/http"

	"github.com/timgst1/coffeeshop/internal/httpapi/respond"
)

func (h DrinkHandler) DeleteDrink(w http.ResponseWriter, r *http.Request) {
	id, ok := drinkID(r)
	if !ok {
		respond.NotFound(w)
		return
	}

	if err := h.Drinks.DeleteDrink(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "delete": id})
}
