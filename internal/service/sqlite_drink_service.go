package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type SQLiteDrinkService struct {
	db *sql.DB
}

func NewSQLiteDrinkService(db *sql.DB) *SQLiteDrinkService {
	return &SQLiteDrinkService{db: db}
}

func (s *SQLiteDrinkService) ListDrinks(ctx context.Context) ([]Drink, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, recipe FROM drinks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Drink
	for rows.Next() {
		d, err := scanDrink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteDrinkService) GetDrink(ctx context.Context, id int64) (Drink, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, recipe FROM drinks WHERE id = ?`, id)
	d, err := scanDrink(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Drink{}, ErrNotFound
		}
		return Drink{}, err
	}
	return d, nil
}

func (s *SQLiteDrinkService) CreateDrink(ctx context.Context, title string, recipe []Ingredient) (Drink, error) {
	title = normalizeTitle(title)
	if err := ValidateDrink(title, recipe); err != nil {
		return Drink{}, err
	}

	enc, err := json.Marshal(recipe)
	if err != nil {
		return Drink{}, err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO drinks(title, recipe) VALUES(?, ?)`, title, string(enc))
	if err != nil {
		return Drink{}, mapWriteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Drink{}, err
	}
	return Drink{ID: id, Title: title, Recipe: recipe}, nil
}

func (s *SQLiteDrinkService) UpdateDrink(ctx context.Context, id int64, patch DrinkPatch) (Drink, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Drink{}, err
	}
	defer func() { _ = tx.Rollback() }()

	d, err := scanDrink(tx.QueryRowContext(ctx, `SELECT id, title, recipe FROM drinks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Drink{}, ErrNotFound
		}
		return Drink{}, err
	}

	if patch.Title != nil {
		d.Title = normalizeTitle(*patch.Title)
	}
	if patch.Recipe != nil {
		d.Recipe = patch.Recipe
	}
	if err := ValidateDrink(d.Title, d.Recipe); err != nil {
		return Drink{}, err
	}

	enc, err := json.Marshal(d.Recipe)
	if err != nil {
		return Drink{}, err
	}

	_, err = tx.ExecContext(ctx, `
UPDATE drinks
SET title = ?, recipe = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
WHERE id = ?;`,
		d.Title, string(enc), id,
	)
	if err != nil {
		return Drink{}, mapWriteErr(err)
	}

	if err := tx.Commit(); err != nil {
		return Drink{}, err
	}
	return d, nil
}

func (s *SQLiteDrinkService) DeleteDrink(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drinks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDrink(r rowScanner) (Drink, error) {
	var (
		d      Drink
		recipe string
	)
	if err := r.Scan(&d.ID, &d.Title, &recipe); err != nil {
		return Drink{}, err
	}
	if err := json.Unmarshal([]byte(recipe), &d.Recipe); err != nil {
		return Drink{}, fmt.Errorf("decode recipe of drink %d: %w", d.ID, err)
	}
	return d, nil
}

func mapWriteErr(err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
