package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/timgst1/coffeeshop/internal/service"
)

type MenuFile struct {
	Drinks []MenuDrink `yaml:"drinks"`
}

type MenuDrink struct {
	Title  string               `yaml:"title"`
	Recipe []service.Ingredient `yaml:"recipe"`
}

func LoadMenuFile(path string) (*MenuFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m MenuFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode menu %q: %w", path, err)
	}
	if err := validateMenu(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func validateMenu(m *MenuFile) error {
	seen := map[string]struct{}{}
	for i := range m.Drinks {
		d := &m.Drinks[i]
		d.Title = strings.TrimSpace(d.Title)
		if d.Title == "" {
			return fmt.Errorf("menu: drink %d has no title", i)
		}
		if _, ok := seen[d.Title]; ok {
			return fmt.Errorf("menu: duplicate title %q", d.Title)
		}
		seen[d.Title] = struct{}{}

		if err := service.ValidateDrink(d.Title, d.Recipe); err != nil {
			return fmt.Errorf("menu: drink %q: %w", d.Title, err)
		}
	}
	return nil
}

type ImportMenuOptions struct {
	// Replace deletes drinks whose title is not in the menu.
	Replace bool
	DryRun  bool
}

type ImportMenuResult struct {
	Inserted int
	Updated  int
	Deleted  int
}

// ImportMenu upserts the menu by title in a single transaction.
func ImportMenu(ctx context.Context, db *sql.DB, menu *MenuFile, opt ImportMenuOptions) (ImportMenuResult, error) {
	if db == nil {
		return ImportMenuResult{}, errors.New("db is nil")
	}
	if menu == nil {
		return ImportMenuResult{}, errors.New("menu is nil")
	}
	if err := validateMenu(menu); err != nil {
		return ImportMenuResult{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ImportMenuResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var res ImportMenuResult
	for _, d := range menu.Drinks {
		recipe, err := json.Marshal(d.Recipe)
		if err != nil {
			return res, err
		}

		var id int64
		err = tx.QueryRowContext(ctx, `SELECT id FROM drinks WHERE title = ?`, d.Title).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx, `INSERT INTO drinks(title, recipe) VALUES(?, ?)`, d.Title, string(recipe)); err != nil {
				return res, fmt.Errorf("insert %q: %w", d.Title, err)
			}
			res.Inserted++
		case err != nil:
			return res, err
		default:
			_, err := tx.ExecContext(ctx, `
UPDATE drinks
SET recipe = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
WHERE id = ?;`,
				string(recipe), id,
			)
			if err != nil {
				return res, fmt.Errorf("update %q: %w", d.Title, err)
			}
			res.Updated++
		}
	}

	if opt.Replace {
		n, err := deleteMissing(ctx, tx, menu)
		if err != nil {
			return res, err
		}
		res.Deleted = n
	}

	// Dry-run: report only
	if opt.DryRun {
		return res, nil
	}

	if err := tx.Commit(); err != nil {
		return res, err
	}
	return res, nil
}

func deleteMissing(ctx context.Context, tx *sql.Tx, menu *MenuFile) (int, error) {
	if len(menu.Drinks) == 0 {
		r, err := tx.ExecContext(ctx, `DELETE FROM drinks`)
		if err != nil {
			return 0, err
		}
		n, err := r.RowsAffected()
		return int(n), err
	}

	args := make([]any, 0, len(menu.Drinks))
	for _, d := range menu.Drinks {
		args = append(args, d.Title)
	}
	q := `DELETE FROM drinks WHERE title NOT IN (?` + strings.Repeat(`, ?`, len(args)-1) + `)`

	r, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	n, err := r.RowsAffected()
	return int(n), err
}
