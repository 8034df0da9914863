package category

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store persists the taxonomy in Postgres.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// OpenDB opens and pings a Postgres connection through the pgx stdlib
// driver.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the category tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS categories (
	id SERIAL PRIMARY KEY,
	name VARCHAR(100) UNIQUE NOT NULL,
	display_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS subcategories (
	id SERIAL PRIMARY KEY,
	category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	name VARCHAR(100) NOT NULL,
	display_order INTEGER NOT NULL DEFAULT 0,
	UNIQUE (category_id, name)
);

CREATE INDEX IF NOT EXISTS idx_subcategories_category_id ON subcategories(category_id);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	return nil
}

// Upsert writes the definitions into the store, preserving their order
// through display_order columns. Existing rows keep their ids.
func (s *Store) Upsert(ctx context.Context, defs []Definition) error {
	const categoryQuery = `
INSERT INTO categories (name, display_order) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET display_order = EXCLUDED.display_order
RETURNING id`
	const subcategoryQuery = `
INSERT INTO subcategories (category_id, name, display_order) VALUES ($1, $2, $3)
ON CONFLICT (category_id, name) DO UPDATE SET display_order = EXCLUDED.display_order`

	for catOrder, def := range defs {
		var categoryID int64
		if err := s.db.QueryRowContext(ctx, categoryQuery, def.Name, catOrder).Scan(&categoryID); err != nil {
			return fmt.Errorf("upsert category %q: %w", def.Name, err)
		}
		for subOrder, sub := range def.Subcategories {
			if _, err := s.db.ExecContext(ctx, subcategoryQuery, categoryID, sub, subOrder); err != nil {
				return fmt.Errorf("upsert subcategory %q: %w", sub, err)
			}
		}
	}
	return nil
}

// Fetch reads the ordered taxonomy back out of the store.
func (s *Store) Fetch(ctx context.Context) ([]Definition, error) {
	const query = `
SELECT c.name, s.name
FROM categories c
LEFT JOIN subcategories s ON s.category_id = c.id
ORDER BY c.display_order, c.name, s.display_order, s.name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		var categoryName string
		var subcategoryName sql.NullString
		if err := rows.Scan(&categoryName, &subcategoryName); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		if len(defs) == 0 || defs[len(defs)-1].Name != categoryName {
			defs = append(defs, Definition{Name: categoryName})
		}
		if subcategoryName.Valid && subcategoryName.String != "" {
			last := &defs[len(defs)-1]
			last.Subcategories = append(last.Subcategories, subcategoryName.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return defs, nil
}
