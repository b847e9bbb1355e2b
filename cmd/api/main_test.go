package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-tongue/backend/internal/config"
	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
	"github.com/zhouzirui/z-tongue/backend/internal/repository/catalog"
	"github.com/zhouzirui/z-tongue/backend/internal/service/session"
)

func TestNewCompleterWithoutCredentials(t *testing.T) {
	completer, err := newCompleter(context.Background(), config.AIConfig{Provider: config.ProviderArk})
	require.NoError(t, err)
	assert.Nil(t, completer)
}

func TestNewCatalogDrivers(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	mem, err := newCatalog(ctx, config.CatalogConfig{Driver: config.DriverMemory}, logger)
	require.NoError(t, err)
	assert.IsType(t, &product.MemoryStore{}, mem)

	lite, err := newCatalog(ctx, config.CatalogConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"}, logger)
	require.NoError(t, err)
	store, ok := lite.(*catalog.SQLiteStore)
	require.True(t, ok)
	t.Cleanup(func() { _ = store.Close() })

	_, total, err := lite.ListProducts(ctx, product.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, len(product.Seed()), total)
}

func TestNewCatalogFromSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "products:\n  - id: 7\n    name: 菊花茶\n    category: 调理茶饮\n    keywords: [清热]\n    price: 19.9\n    rating: 4.5\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	store, err := newCatalog(context.Background(), config.CatalogConfig{Driver: config.DriverMemory, SeedFile: path}, zap.NewNop())
	require.NoError(t, err)

	item, ok, err := store.GetProduct(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "菊花茶", item.Name)
}

func TestNewSessionStoreMemory(t *testing.T) {
	store, err := newSessionStore(config.SessionConfig{
		Driver:          config.DriverMemory,
		TTL:             time.Hour,
		CleanupInterval: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryStore{}, store)
	require.NoError(t, store.Close())
}
