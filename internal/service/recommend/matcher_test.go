package recommend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
)

type countingCatalog struct {
	calls    atomic.Int32
	err      error
	keywords []string
	limit    int
	inner    product.Store
}

func (c *countingCatalog) SearchProducts(ctx context.Context, keywords []string, limit int) ([]product.Product, error) {
	c.calls.Add(1)
	c.keywords = keywords
	c.limit = limit
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.SearchProducts(ctx, keywords, limit)
}

func TestRecommendJustifiesEveryProduct(t *testing.T) {
	catalog := &countingCatalog{inner: product.NewMemoryStore(product.Seed())}
	matcher := NewMatcher(catalog, nil)

	a := &diagnosis.TongueAnalysis{TongueColor: "淡白", CoatingColor: "白", Score: 70}
	recs, err := matcher.Recommend(context.Background(), a, nil, 3)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.LessOrEqual(t, len(recs), 3)
	assert.Equal(t, 3, catalog.limit)
	assert.Equal(t, []string{"补气血", "气血不足", "补气", "体虚", "疲劳"}, catalog.keywords)

	assert.Equal(t, int64(1), recs[0].ProductID)
	assert.Equal(t, "您的舌质偏淡白，适合补气血类产品", recs[0].Justification)
	for _, r := range recs {
		assert.NotEmpty(t, r.Justification)
		assert.Positive(t, r.MatchScore)
	}
}

func TestRecommendSkipsCatalogWithoutKeywords(t *testing.T) {
	catalog := &countingCatalog{inner: product.NewMemoryStore(product.Seed())}
	matcher := NewMatcher(catalog, nil)

	a := &diagnosis.TongueAnalysis{TongueColor: "淡红", TongueShape: "正常", CoatingColor: "白", CoatingThickness: "薄苔"}
	recs, err := matcher.Recommend(context.Background(), a, nil, 6)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, int32(0), catalog.calls.Load())
}

func TestRecommendWrapsCatalogFailure(t *testing.T) {
	catalog := &countingCatalog{err: errors.New("database down")}
	matcher := NewMatcher(catalog, nil)

	_, err := matcher.Recommend(context.Background(), &diagnosis.TongueAnalysis{TongueColor: "红"}, nil, 6)
	assert.ErrorIs(t, err, ErrCatalog)
}

func TestMatchDefaultsLimit(t *testing.T) {
	catalog := &countingCatalog{inner: product.NewMemoryStore(product.Seed())}
	matcher := NewMatcher(catalog, nil)

	_, err := matcher.Match(context.Background(), []string{"清热"}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, catalog.limit)
}

type contextCatalog struct {
	err      error
	deadline bool
}

func (c *contextCatalog) SearchProducts(ctx context.Context, _ []string, _ int) ([]product.Product, error) {
	c.err = ctx.Err()
	_, c.deadline = ctx.Deadline()
	return []product.Product{{ID: 1, Name: "黄芪片"}}, nil
}

func TestMatchLookupSurvivesCallerCancellation(t *testing.T) {
	catalog := &contextCatalog{}
	matcher := NewMatcher(catalog, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	products, err := matcher.Match(ctx, []string{"补气血"}, 3)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.NoError(t, catalog.err)
	assert.True(t, catalog.deadline)
}
