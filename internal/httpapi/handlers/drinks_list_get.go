package handlers

import (
	"net/http"

	"github.com/timgst1/coffeeshop/internal/httpapi/respond"
)

// ListDrinks serves the public menu with the short recipe representation.
func (h DrinkHandler) ListDrinks(w http.ResponseWriter, r *http.Request) {
	drinks, err := h.Drinks.ListDrinks(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(drinks) == 0 {
		respond.NotFound(w)
		return
	}

	out := make([]shortDrink, 0, len(drinks))
	for _, d := range drinks {
		out = append(out, short(d))
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "drinks": out})
}

func (h DrinkHandler) ListDrinksDetail(w http.ResponseWriter, r *http.Request) {
	drinks, err := h.Drinks.ListDrinks(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(drinks) == 0 {
		respond.NotFound(w)
		return
	}

	out := make([]longDrink, 0, len(drinks))
	for _, d := range drinks {
		out = append(out, long(d))
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "drinks": out})
}
