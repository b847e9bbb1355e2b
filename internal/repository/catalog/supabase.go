package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
)

const productsTable = "products"

// SupabaseConfig holds hosted catalog connection settings.
type SupabaseConfig struct {
	URL    string
	APIKey string
}

// SupabaseStore reads the catalog from a hosted Postgres through PostgREST.
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore creates a hosted catalog client.
func NewSupabaseStore(cfg SupabaseConfig) (*SupabaseStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

type productRow struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Subcategory   string   `json:"subcategory"`
	Keywords      []string `json:"keywords"`
	Description   string   `json:"description"`
	Benefits      []string `json:"benefits"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"original_price"`
	ImageURL      string   `json:"image_url"`
	Brand         string   `json:"brand"`
	Rating        float64  `json:"rating"`
	ReviewCount   int      `json:"review_count"`
}

func (r productRow) toProduct() product.Product {
	return product.Product{
		ID:            r.ID,
		Name:          r.Name,
		Category:      r.Category,
		Subcategory:   r.Subcategory,
		Keywords:      r.Keywords,
		Description:   r.Description,
		Benefits:      r.Benefits,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		ImageURL:      r.ImageURL,
		Brand:         r.Brand,
		Rating:        r.Rating,
		ReviewCount:   r.ReviewCount,
	}
}

func toProducts(rows []productRow) []product.Product {
	out := make([]product.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toProduct())
	}
	return out
}

// SearchProducts fetches products whose keyword array overlaps the query and
// ranks them locally.
func (s *SupabaseStore) SearchProducts(_ context.Context, keywords []string, limit int) ([]product.Product, error) {
	if len(keywords) == 0 {
		return []product.Product{}, nil
	}

	var rows []productRow
	_, err := s.client.From(productsTable).
		Select("*", "", false).
		Eq("is_active", "true").
		Filter("keywords", "ov", postgresArray(keywords)).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return product.Rank(toProducts(rows), keywords, limit), nil
}

// ListProducts implements product.Store.
func (s *SupabaseStore) ListProducts(_ context.Context, opts product.ListOptions) ([]product.Product, int, error) {
	query := s.client.From(productsTable).
		Select("*", "exact", false).
		Eq("is_active", "true")
	if opts.Category != "" {
		query = query.Eq("category", opts.Category)
	}
	if opts.Limit > 0 {
		from := max(opts.Offset, 0)
		query = query.Range(from, from+opts.Limit-1, "")
	}

	var rows []productRow
	count, err := query.
		Order("rating", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return toProducts(rows), int(count), nil
}

// GetProduct implements product.Store.
func (s *SupabaseStore) GetProduct(_ context.Context, id int64) (product.Product, bool, error) {
	var rows []productRow
	_, err := s.client.From(productsTable).
		Select("*", "", false).
		Eq("id", fmt.Sprint(id)).
		Eq("is_active", "true").
		ExecuteTo(&rows)
	if err != nil {
		return product.Product{}, false, fmt.Errorf("failed to get product: %w", err)
	}
	if len(rows) == 0 {
		return product.Product{}, false, nil
	}
	return rows[0].toProduct(), true, nil
}

// Categories implements product.Store.
func (s *SupabaseStore) Categories(_ context.Context) ([]product.Category, error) {
	var rows []productRow
	_, err := s.client.From(productsTable).
		Select("category", "", false).
		Eq("is_active", "true").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return product.CountCategories(toProducts(rows)), nil
}

// Ping implements product.Pinger with a single-row read.
func (s *SupabaseStore) Ping(_ context.Context) error {
	var rows []productRow
	_, err := s.client.From(productsTable).
		Select("id", "", false).
		Limit(1, "").
		ExecuteTo(&rows)
	return err
}

// postgresArray renders values as a Postgres array literal.
func postgresArray(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		quoted = append(quoted, `"`+v+`"`)
	}
	return "{" + strings.Join(quoted, ",") + "}"
}
