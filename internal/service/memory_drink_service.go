package service

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

type MemoryDrinkService struct {
	mu     sync.RWMutex
	nextID int64
	m      map[int64]Drink
}

func NewMemoryDrinkService(seed ...Drink) *MemoryDrinkService {
	s := &MemoryDrinkService{nextID: 1, m: map[int64]Drink{}}
	for _, d := range seed {
		d.ID = s.nextID
		d.Recipe = slices.Clone(d.Recipe)
		s.m[d.ID] = d
		s.nextID++
	}
	return s
}

func (s *MemoryDrinkService) ListDrinks(ctx context.Context) ([]Drink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Drink, 0, len(s.m))
	for _, d := range s.m {
		out = append(out, cloneDrink(d))
	}
	slices.SortFunc(out, func(a, b Drink) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *MemoryDrinkService) GetDrink(ctx context.Context, id int64) (Drink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.m[id]
	if !ok {
		return Drink{}, ErrNotFound
	}
	return cloneDrink(d), nil
}

func (s *MemoryDrinkService) CreateDrink(ctx context.Context, title string, recipe []Ingredient) (Drink, error) {
	title = normalizeTitle(title)
	if err := ValidateDrink(title, recipe); err != nil {
		return Drink{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.titleTaken(title, 0) {
		return Drink{}, ErrConflict
	}
	d := Drink{ID: s.nextID, Title: title, Recipe: slices.Clone(recipe)}
	s.m[d.ID] = d
	s.nextID++
	return cloneDrink(d), nil
}

func (s *MemoryDrinkService) UpdateDrink(ctx context.Context, id int64, patch DrinkPatch) (Drink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.m[id]
	if !ok {
		return Drink{}, ErrNotFound
	}
	if patch.Title != nil {
		d.Title = normalizeTitle(*patch.Title)
	}
	if patch.Recipe != nil {
		d.Recipe = slices.Clone(patch.Recipe)
	}
	if err := ValidateDrink(d.Title, d.Recipe); err != nil {
		return Drink{}, err
	}
	if s.titleTaken(d.Title, id) {
		return Drink{}, ErrConflict
	}

	s.m[id] = d
	return cloneDrink(d), nil
}

func (s *MemoryDrinkService) DeleteDrink(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return ErrNotFound
	}
	delete(s.m, id)
	return nil
}

func (s *MemoryDrinkService) titleTaken(title string, except int64) bool {
	for id, d := range s.m {
		if id != except && d.Title == title {
			return true
		}
	}
	return false
}

func cloneDrink(d Drink) Drink {
	d.Recipe = slices.Clone(d.Recipe)
	return d
}
