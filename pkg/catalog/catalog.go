// Package catalog keeps the static body definitions in sqlite.
// Only definitions live here; orbit state is never written back.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"solar-orrery/simulator/model"
)

var ErrNotFound = errors.New("body not found")

const schema = `
CREATE TABLE IF NOT EXISTS bodies (
	position INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	radius REAL NOT NULL CHECK (radius > 0),
	base_speed REAL NOT NULL CHECK (base_speed > 0),
	size REAL NOT NULL DEFAULT 0,
	color INTEGER NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT ''
);`

type Catalog struct {
	db *sql.DB
}

func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Seed stores planets in order when the catalog is empty. It reports whether it wrote anything.
func (c *Catalog) Seed(ctx context.Context, planets []model.Planet) (bool, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bodies").Scan(&n); err != nil {
		return false, fmt.Errorf("count bodies: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	for i, p := range planets {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO bodies (position, name, radius, base_speed, size, color, description) VALUES (?, ?, ?, ?, ?, ?, ?)",
			i, p.Name, p.Radius, p.BaseSpeed, p.Size, p.Color, p.Description); err != nil {
			return false, fmt.Errorf("seed %s: %w", p.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	return true, nil
}

// List returns the bodies in registration order.
func (c *Catalog) List(ctx context.Context) ([]model.Planet, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT name, radius, base_speed, size, color, description FROM bodies ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("list bodies: %w", err)
	}
	defer rows.Close()

	var planets []model.Planet
	for rows.Next() {
		var p model.Planet
		if err := rows.Scan(&p.Name, &p.Radius, &p.BaseSpeed, &p.Size, &p.Color, &p.Description); err != nil {
			return nil, fmt.Errorf("scan body: %w", err)
		}
		planets = append(planets, p)
	}
	return planets, rows.Err()
}

func (c *Catalog) Get(ctx context.Context, name string) (model.Planet, error) {
	var p model.Planet
	err := c.db.QueryRowContext(ctx,
		"SELECT name, radius, base_speed, size, color, description FROM bodies WHERE name = ?", name).
		Scan(&p.Name, &p.Radius, &p.BaseSpeed, &p.Size, &p.Color, &p.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return p, fmt.Errorf("get %s: %w", name, err)
	}
	return p, nil
}

// Upsert replaces the definition of p.Name, appending it when new.
func (c *Catalog) Upsert(ctx context.Context, p model.Planet) error {
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO bodies (position, name, radius, base_speed, size, color, description)
	VALUES ((SELECT COALESCE(MAX(position), -1) + 1 FROM bodies), ?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		radius = excluded.radius,
		base_speed = excluded.base_speed,
		size = excluded.size,
		color = excluded.color,
		description = excluded.description`,
		p.Name, p.Radius, p.BaseSpeed, p.Size, p.Color, p.Description)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", p.Name, err)
	}
	return nil
}

func (c *Catalog) Delete(ctx context.Context, name string) error {
	res, err := c.db.ExecContext(ctx, "DELETE FROM bodies WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
