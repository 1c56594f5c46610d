package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/timgst1/coffeeshop/internal/httpapi/respond"
)

type drinkReq struct {
	Title  *string         `json:"title"`
	Recipe json.RawMessage `json:"recipe"`
}

const maxBodyBytes = 1 << 20

func (h DrinkHandler) CreateDrink(w http.ResponseWriter, r *http.Request) {
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
	if in.Title == nil || recipe == nil {
		h.fail(w, r, errors.New("title and recipe are required"))
		return
	}

	d, err := h.Drinks.CreateDrink(r.Context(), *in.Title, recipe)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "drinks": []longDrink{long(d)}})
}
