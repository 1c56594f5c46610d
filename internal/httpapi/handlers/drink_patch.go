package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/timgst1/coffeeshop/internal/httpapi/respond"
	"github.com/timgst1/coffeeshop/internal/service"
)

func (h DrinkHandler) UpdateDrink(w http.ResponseWriter, r *http.Request) {
	id, ok := drinkID(r)
	if !ok {
		respond.NotFound(w)
		return
	}

	// unknown drinks are 404 regardless of the body
	if _, err := h.Drinks.GetDrink(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	var in drinkReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		h.fail(w, r, err)
		return
	}
	recipe, err := decodeRecipe(in.Recipe)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	d, err := h.Drinks.UpdateDrink(r.Context(), id, service.DrinkPatch{Title: in.Title, Recipe: recipe})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "drinks": []longDrink{long(d)}})
}
