package repos

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed/catalog.yaml
var defaultCatalog []byte

type seedFile struct {
	Categories []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"categories"`
	Items []struct {
		ID          string `yaml:"id"`
		Category    string `yaml:"category"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Price       string `yaml:"price"`
	} `yaml:"items"`
}

// SeedDefault loads the bundled demo catalog.
func SeedDefault(db *sqlx.DB) (bool, error) { return Seed(db, defaultCatalog) }

// SeedFile loads a catalog fixture from disk.
func SeedFile(db *sqlx.DB, path string) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read seed file: %w", err)
	}
	return Seed(db, b)
}

// Seed inserts the catalog fixture when the catalog is empty. It reports
// whether anything was written; a non-empty catalog is left alone.
func Seed(db *sqlx.DB, fixture []byte) (bool, error) {
	var f seedFile
	if err := yaml.Unmarshal(fixture, &f); err != nil {
		return false, fmt.Errorf("parse seed: %w", err)
	}

	var n int
	if err := db.Get(&n, `SELECT (SELECT COUNT(*) FROM categories) + (SELECT COUNT(*) FROM items)`); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, c := range f.Categories {
		if _, err := tx.Exec(`INSERT INTO categories(id,name,created_at) VALUES(?,?,?)`, c.ID, c.Name, now); err != nil {
			return false, fmt.Errorf("seed category %s: %w", c.ID, err)
		}
	}
	for _, it := range f.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return false, fmt.Errorf("seed item %s: bad price %q: %w", it.ID, it.Price, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO items(id,category_id,name,description,price,created_at,updated_at)
			VALUES(?,NULLIF(?,''),?,?,?,?,?)`,
			it.ID, it.Category, it.Name, it.Description, price.String(), now, now); err != nil {
			return false, fmt.Errorf("seed item %s: %w", it.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
