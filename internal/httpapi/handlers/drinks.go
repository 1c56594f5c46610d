package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/timgst1/coffeeshop/internal/httpapi/respond"
	"github.com/timgst1/coffeeshop/internal/service"
)

type DrinkHandler struct {
	Drinks service.DrinkService
	Log    *slog.Logger
}

type shortIngredient struct {
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

type shortDrink struct {
	ID     int64             `json:"id"`
	Title  string            `json:"title"`
	Recipe []shortIngredient `json:"recipe"`
}

type longDrink struct {
	ID     int64                `json:"id"`
	Title  string               `json:"title"`
	Recipe []service.Ingredient `json:"recipe"`
}

// short hides ingredient names from the public menu.
func short(d service.Drink) shortDrink {
	out := shortDrink{ID: d.ID, Title: d.Title, Recipe: make([]shortIngredient, 0, len(d.Recipe))}
	for _, in := range d.Recipe {
		out.Recipe = append(out.Recipe, shortIngredient{Color: in.Color, Parts: in.Parts})
	}
	return out
}

func long(d service.Drink) longDrink {
	recipe := d.Recipe
	if recipe == nil {
		recipe = []service.Ingredient{}
	}
	return longDrink{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// fail maps service errors to the generic 404/422 envelopes.
func (h DrinkHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrNotFound) {
		respond.NotFound(w)
		return
	}
	h.logger().Error("drink request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	respond.Unprocessable(w)
}

func (h DrinkHandler) logger() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

// drinkID reads the {id} path parameter; ok is false when it is not a positive integer.
func drinkID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeRecipe accepts a single ingredient object or an array of them.
// A missing or null recipe yields nil.
func decodeRecipe(raw json.RawMessage) ([]service.Ingredient, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '{' {
		var one service.Ingredient
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, err
		}
		return []service.Ingredient{one}, nil
	}

	var many []service.Ingredient
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, err
	}
	if many == nil {
		many = []service.Ingredient{}
	}
	return many, nil
}
