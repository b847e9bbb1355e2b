// Package catalog provides product.Store implementations backed by databases.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
)

// SQLiteStore serves the catalog from an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens dsn, creates the schema and loads seed when the
// products table is empty.
func NewSQLiteStore(ctx context.Context, dsn string, seed []product.Product) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate catalog database: %w", err)
	}
	if err := store.seed(ctx, seed); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed catalog database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			subcategory TEXT NOT NULL DEFAULT '',
			keywords TEXT NOT NULL DEFAULT '[]',
			description TEXT NOT NULL DEFAULT '',
			benefits TEXT NOT NULL DEFAULT '[]',
			price REAL NOT NULL DEFAULT 0,
			original_price REAL,
			image_url TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			rating REAL NOT NULL DEFAULT 0,
			review_count INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) seed(ctx context.Context, items []product.Product) error {
	if len(items) == 0 {
		return nil
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO products
		(id, name, category, subcategory, keywords, description, benefits, price, original_price, image_url, brand, rating, review_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range items {
		keywords, _ := json.Marshal(nonNil(p.Keywords))
		benefits, _ := json.Marshal(nonNil(p.Benefits))
		if _, err := stmt.ExecContext(ctx, p.ID, p.Name, p.Category, p.Subcategory, string(keywords),
			p.Description, string(benefits), p.Price, p.OriginalPrice, p.ImageURL, p.Brand, p.Rating, p.ReviewCount); err != nil {
			return fmt.Errorf("insert product %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

const productColumns = `id, name, category, subcategory, keywords, description, benefits, price, original_price, image_url, brand, rating, review_count`

// SearchProducts scores active products by keyword overlap using json_each.
func (s *SQLiteStore) SearchProducts(ctx context.Context, keywords []string, limit int) ([]product.Product, error) {
	if len(keywords) == 0 {
		return []product.Product{}, nil
	}
	if limit <= 0 {
		limit = 6
	}
	query, _ := json.Marshal(keywords)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixed("p.", productColumns)+`, COUNT(DISTINCT k.value) AS match_score
		FROM products p, json_each(p.keywords) k
		WHERE p.is_active = 1 AND k.value IN (SELECT value FROM json_each(?))
		GROUP BY p.id
		ORDER BY match_score DESC, p.rating DESC, p.id ASC
		LIMIT ?`, string(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var result []product.Product
	for rows.Next() {
		p, err := scanProduct(rows, true)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if result == nil {
		result = []product.Product{}
	}
	return result, nil
}

// ListProducts implements product.Store.
func (s *SQLiteStore) ListProducts(ctx context.Context, opts product.ListOptions) ([]product.Product, int, error) {
	where := `WHERE is_active = 1`
	args := []any{}
	if opts.Category != "" {
		where += ` AND category = ?`
		args = append(args, opts.Category)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products `+where+
		` ORDER BY rating DESC, id ASC LIMIT ? OFFSET ?`, append(args, limit, max(opts.Offset, 0))...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	result := []product.Product{}
	for rows.Next() {
		p, err := scanProduct(rows, false)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

// GetProduct implements product.Store.
func (s *SQLiteStore) GetProduct(ctx context.Context, id int64) (product.Product, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ? AND is_active = 1`, id)
	p, err := scanProduct(row, false)
	if errors.Is(err, sql.ErrNoRows) {
		return product.Product{}, false, nil
	}
	if err != nil {
		return product.Product{}, false, err
	}
	return p, true, nil
}

// Categories implements product.Store.
func (s *SQLiteStore) Categories(ctx context.Context) ([]product.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM products WHERE is_active = 1 GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	result := []product.Category{}
	for rows.Next() {
		var c product.Category
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Ping implements product.Pinger.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner, withScore bool) (product.Product, error) {
	var (
		p             product.Product
		keywords      string
		benefits      string
		originalPrice sql.NullFloat64
	)
	dest := []any{&p.ID, &p.Name, &p.Category, &p.Subcategory, &keywords, &p.Description, &benefits,
		&p.Price, &originalPrice, &p.ImageURL, &p.Brand, &p.Rating, &p.ReviewCount}
	if withScore {
		dest = append(dest, &p.MatchScore)
	}
	if err := row.Scan(dest...); err != nil {
		return product.Product{}, err
	}
	if err := json.Unmarshal([]byte(keywords), &p.Keywords); err != nil {
		return product.Product{}, fmt.Errorf("decode keywords of product %d: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(benefits), &p.Benefits); err != nil {
		return product.Product{}, fmt.Errorf("decode benefits of product %d: %w", p.ID, err)
	}
	if originalPrice.Valid {
		v := originalPrice.Float64
		p.OriginalPrice = &v
	}
	return p, nil
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, c := range parts {
		parts[i] = prefix + c
	}
	return strings.Join(parts, ", ")
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
