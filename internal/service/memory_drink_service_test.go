package service

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryDrinkService_SeedAndList(t *testing.T) {
	svc := NewMemoryDrinkService(
		Drink{Title: "water", Recipe: []Ingredient{{Name: "water", Color: "blue", Parts: 1}}},
		Drink{Title: "latte", Recipe: latteRecipe()},
	)

	list, err := svc.ListDrinks(context.Background())
	if err != nil {
		t.Fatalf("ListDrinks: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 drinks, got %d", len(list))
	}
	if list[0].ID != 1 || list[1].ID != 2 {
		t.Fatalf("expected ids 1,2 in order, got %d,%d", list[0].ID, list[1].ID)
	}
}

func TestMemoryDrinkService_ReturnsCopies(t *testing.T) {
	svc := NewMemoryDrinkService(Drink{Title: "latte", Recipe: latteRecipe()})
	ctx := context.Background()

	d, _ := svc.GetDrink(ctx, 1)
	d.Recipe[0].Name = "tampered"

	again, _ := svc.GetDrink(ctx, 1)
	if again.Recipe[0].Name != "espresso" {
		t.Fatalf("stored recipe was mutated through a returned drink")
	}
}

func TestMemoryDrinkService_UpdateConflict(t *testing.T) {
	svc := NewMemoryDrinkService(
		Drink{Title: "latte", Recipe: latteRecipe()},
		Drink{Title: "mocha", Recipe: latteRecipe()},
	)

	title := "latte"
	_, err := svc.UpdateDrink(context.Background(), 2, DrinkPatch{Title: &title})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
