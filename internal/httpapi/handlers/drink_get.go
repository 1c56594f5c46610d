package handlers

import (
	"net/http"

	"github.com/timgst1/coffeeshop/internal/httpapi/respond"
)

func (h DrinkHandler) GetDrink(w http.ResponseWriter, r *http.Request) {
	id, ok := drinkID(r)
	if !ok {
		respond.NotFound(w)
		return
	}

	d, err := h.Drinks.GetDrink(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "drinks": []longDrink{long(d)}})
}
