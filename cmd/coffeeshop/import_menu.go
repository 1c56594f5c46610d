package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/timgst1/coffeeshop/internal/admin"
	"github.com/timgst1/coffeeshop/internal/storage/sqlite"
)

func runImportMenu(args []string) error {
	fs := flag.NewFlagSet("import-menu", flag.ContinueOnError)

	dbPath := fs.String("db", getenvDefault("SQLITE_PATH", "./data/coffeeshop.db"), "Path to sqlite db file")
	file := fs.String("file", "", "Menu YAML file [required]")
	replace := fs.Bool("replace", false, "Delete drinks that are not in the menu file")
	dryRun := fs.Bool("dry-run", false, "Only report what would change")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	menu, err := admin.LoadMenuFile(*file)
	if err != nil {
		return err
	}

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlite.Migrate(db); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := admin.ImportMenu(ctx, db, menu, admin.ImportMenuOptions{
		Replace: *replace,
		DryRun:  *dryRun,
	})
	if err != nil {
		return err
	}

	if *dryRun {
		fmt.Printf("dry-run: would insert=%d update=%d delete=%d\n", res.Inserted, res.Updated, res.Deleted)
		return nil
	}

	fmt.Printf("import complete: inserted=%d updated=%d deleted=%d\n", res.Inserted, res.Updated, res.Deleted)
	return nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
