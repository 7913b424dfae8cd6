package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cata32101/odysseus-app/internal/model"
)

func testCache(t *testing.T) *SQLiteCache {
	t.Helper()

	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	require.NoError(t, cache.Migrate(context.Background()))
	return cache
}

func TestNewSQLiteCache_EmptyPath(t *testing.T) {
	_, err := NewSQLiteCache("")
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	cache := testCache(t)
	assert.NoError(t, cache.Migrate(context.Background()))
}

func TestCompanySnapshot_RoundTrip(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	score := 7.5
	created := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	companies := []model.Company{
		{ID: 1, Domain: "globex.com", Name: "Globex", Status: model.StatusVetted, UnifiedScore: &score, CreatedAt: created},
		{ID: 2, Domain: "initech.com", Status: model.StatusNew, CreatedAt: created},
	}

	require.NoError(t, cache.SaveCompanies(ctx, companies))

	loaded, err := cache.LoadCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "globex.com", loaded[0].Domain)
	require.NotNil(t, loaded[0].UnifiedScore)
	assert.InDelta(t, 7.5, *loaded[0].UnifiedScore, 0.001)
	assert.Nil(t, loaded[1].UnifiedScore)
	assert.True(t, loaded[1].CreatedAt.Equal(created))
}

func TestSaveCompanies_ReplacesPriorSnapshot(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveCompanies(ctx, []model.Company{
		{ID: 1, Domain: "old.com", Status: model.StatusNew},
		{ID: 2, Domain: "older.com", Status: model.StatusNew},
	}))
	require.NoError(t, cache.SaveCompanies(ctx, []model.Company{
		{ID: 3, Domain: "new.com", Status: model.StatusVetted},
	}))

	loaded, err := cache.LoadCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "new.com", loaded[0].Domain)
}

func TestLoadCompanies_EmptyDatabase(t *testing.T) {
	cache := testCache(t)

	loaded, err := cache.LoadCompanies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestContactSnapshot_RoundTrip(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	contacts := []model.Contact{
		{ID: 10, Name: "Ada Smith", Email: "ada@globex.com", Status: model.ContactEnriched, CompanyName: "Globex"},
	}

	require.NoError(t, cache.SaveContacts(ctx, contacts))

	loaded, err := cache.LoadContacts(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "ada@globex.com", loaded[0].Email)
	assert.Equal(t, model.ContactEnriched, loaded[0].Status)
}

func TestStatusCounts(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveCompanies(ctx, []model.Company{
		{ID: 1, Domain: "a.com", Status: model.StatusNew},
		{ID: 2, Domain: "b.com", Status: model.StatusNew},
		{ID: 3, Domain: "c.com", Status: model.StatusVetted},
	}))

	counts, err := cache.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[model.StatusNew])
	assert.Equal(t, 1, counts[model.StatusVetted])
	assert.Zero(t, counts[model.StatusApproved])
}
