package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(context.Background(), ":memory:", product.Seed())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteSearchMatchesMemoryRanking(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	keywords := []string{"清热", "降火", "湿气", "健脾"}

	got, err := store.SearchProducts(ctx, keywords, 6)
	require.NoError(t, err)

	want := product.Rank(product.Seed(), keywords, 6)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID, "position %d", i)
		assert.Equal(t, want[i].MatchScore, got[i].MatchScore, "position %d", i)
	}
}

func TestSQLiteSearchWithoutKeywords(t *testing.T) {
	store := setupStore(t)

	got, err := store.SearchProducts(context.Background(), nil, 6)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteGetProductRoundTripsOptionalFields(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	p, ok, err := store.GetProduct(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, p.OriginalPrice)
	assert.Equal(t, 168.0, *p.OriginalPrice)
	assert.Contains(t, p.Keywords, "补气血")

	p, ok, err = store.GetProduct(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, p.OriginalPrice)

	_, ok, err = store.GetProduct(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteListAndCategories(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	page, total, err := store.ListProducts(ctx, product.ListOptions{Category: "营养补充", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, page, 2)

	all, total, err := store.ListProducts(ctx, product.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, len(product.Seed()), total)
	assert.Len(t, all, total)

	categories, err := store.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, product.CountCategories(product.Seed()), categories)
}

func TestSQLiteSeedRunsOnce(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.seed(ctx, product.Seed()))

	_, total, err := store.ListProducts(ctx, product.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, len(product.Seed()), total)
	require.NoError(t, store.Ping(ctx))
}

func TestPostgresArrayFromSQLite(t *testing.T) {
	assert.Equal(t, `{"清热","a\"b"}`, postgresArray([]string{"清热", `a"b`}))
}
