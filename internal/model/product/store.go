package product

import (
	"context"
	"sort"
	"strings"
)

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Product
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied products.
func NewMemoryStore(items []Product) *MemoryStore {
	return &MemoryStore{items: append([]Product(nil), items...)}
}

// SearchProducts ranks products by the number of query keywords they carry.
func (s *MemoryStore) SearchProducts(_ context.Context, keywords []string, limit int) ([]Product, error) {
	return Rank(s.items, keywords, limit), nil
}

// ListProducts returns a page of products, optionally restricted to one category.
func (s *MemoryStore) ListProducts(_ context.Context, opts ListOptions) ([]Product, int, error) {
	filtered := make([]Product, 0, len(s.items))
	for _, item := range s.items {
		if opts.Category != "" && item.Category != opts.Category {
			continue
		}
		filtered = append(filtered, item)
	}
	total := len(filtered)

	start := opts.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return append([]Product(nil), filtered[start:end]...), total, nil
}

// GetProduct looks up a product by identifier.
func (s *MemoryStore) GetProduct(_ context.Context, id int64) (Product, bool, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true, nil
		}
	}
	return Product{}, false, nil
}

// Categories returns category counts ordered by name.
func (s *MemoryStore) Categories(_ context.Context) ([]Category, error) {
	return CountCategories(s.items), nil
}

// Rank scores products against the keyword set and returns at most limit of
// them, best match first. Ties break on rating, then id.
func Rank(items []Product, keywords []string, limit int) []Product {
	wanted := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			wanted[kw] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return []Product{}
	}

	matched := make([]Product, 0, len(items))
	for _, item := range items {
		score := 0
		for _, kw := range item.Keywords {
			if _, ok := wanted[kw]; ok {
				score++
			}
		}
		if score == 0 {
			continue
		}
		item.MatchScore = score
		matched = append(matched, item)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].MatchScore != matched[j].MatchScore {
			return matched[i].MatchScore > matched[j].MatchScore
		}
		if matched[i].Rating != matched[j].Rating {
			return matched[i].Rating > matched[j].Rating
		}
		return matched[i].ID < matched[j].ID
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// CountCategories groups products by category.
func CountCategories(items []Product) []Category {
	counts := make(map[string]int)
	for _, item := range items {
		counts[item.Category]++
	}
	result := make([]Category, 0, len(counts))
	for name, count := range counts {
		result = append(result, Category{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
