package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("drink not found")
	ErrInvalidDrink = errors.New("invalid drink")
	ErrConflict     = errors.New("drink title already exists")
)

type Ingredient struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
	Parts int    `json:"parts" yaml:"parts"`
}

type Drink struct {
	ID     int64
	Title  string
	Recipe []Ingredient
}

// DrinkPatch carries the fields of a partial update. Nil means unchanged.
type DrinkPatch struct {
	Title  *string
	Recipe []Ingredient
}

type DrinkService interface {
	ListDrinks(ctx context.Context) ([]Drink, error)
	GetDrink(ctx context.Context, id int64) (Drink, error)
	CreateDrink(ctx context.Context, title string, recipe []Ingredient) (Drink, error)
	UpdateDrink(ctx context.Context, id int64, patch DrinkPatch) (Drink, error)
	DeleteDrink(ctx context.Context, id int64) error
}

func normalizeTitle(t string) string {
	return strings.TrimSpace(t)
}

// ValidateDrink checks the invariants every stored drink satisfies.
func ValidateDrink(title string, recipe []Ingredient) error {
	if title == "" {
		return fmt.Errorf("%w: title is empty", ErrInvalidDrink)
	}
	if len(recipe) == 0 {
		return fmt.Errorf("%w: recipe is empty", ErrInvalidDrink)
	}
	for i, in := range recipe {
		if strings.TrimSpace(in.Name) == "" {
			return fmt.Errorf("%w: ingredient %d has no name", ErrInvalidDrink, i)
		}
		if in.Parts < 0 {
			return fmt.Errorf("%w: ingredient %q has negative parts", ErrInvalidDrink, in.Name)
		}
	}
	return nil
}
