package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	analysis "github.com/zhouzirui/z-tongue/backend/internal/analysis/recommend"
	"github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
)

// DefaultLimit caps recommendations per session.
const DefaultLimit = 6

const lookupTimeout = 10 * time.Second

// ErrCatalog wraps failures of the catalog collaborator.
var ErrCatalog = errors.New("catalog lookup failed")

// Searcher is the part of the catalog the matcher needs.
type Searcher interface {
	SearchProducts(ctx context.Context, keywords []string, limit int) ([]product.Product, error)
}

// Matcher turns an analysis and report into justified product picks.
type Matcher struct {
	catalog Searcher
	group   singleflight.Group
	logger  *zap.Logger
}

// NewMatcher creates a Matcher backed by catalog.
func NewMatcher(catalog Searcher, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{catalog: catalog, logger: logger}
}

// Recommend builds keywords from the inputs and matches them against the
// catalog. An empty keyword list yields an empty result without a lookup.
func (m *Matcher) Recommend(ctx context.Context, a *diagnosis.TongueAnalysis, report *diagnosis.FinalReport, limit int) ([]product.Recommended, error) {
	keywords := analysis.BuildKeywords(a, report)
	products, err := m.Match(ctx, keywords, limit)
	if err != nil {
		return nil, err
	}

	result := make([]product.Recommended, 0, len(products))
	for _, p := range products {
		result = append(result, p.Recommend(analysis.Justify(a, p)))
	}
	return result, nil
}

// Match queries the catalog. Identical concurrent lookups share one call.
func (m *Matcher) Match(ctx context.Context, keywords []string, limit int) ([]product.Product, error) {
	if len(keywords) == 0 {
		return []product.Product{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	key := fmt.Sprintf("%d|%s", limit, strings.Join(keywords, ","))
	// The shared lookup outlives any single caller's cancellation.
	v, err, shared := m.group.Do(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return m.catalog.SearchProducts(lookupCtx, keywords, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	if shared {
		m.logger.Debug("catalog lookup shared", zap.Strings("keywords", keywords))
	}

	products := v.([]product.Product)
	return append([]product.Product(nil), products...), nil
}
