package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evtariff/core/pricecache"
)

func TestSQLiteStoreContract(t *testing.T) {
	s, err := OpenSQLite(context.Background(), SQLiteConfig{Path: filepath.Join(t.TempDir(), "cache.db")})
	require.NoError(t, err)
	defer s.Close()
	testStoreContract(t, s)
}

func TestSQLiteStoreFromFactory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := pricecache.NewStore(factoryConfig("sqlite", map[string]any{"path": path}))
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), pricecache.PartitionFavorites, "st-1", []byte("{}")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(context.Background(), SQLiteConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(context.Background(), pricecache.PartitionFavorites)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = OpenSQLite(context.Background(), SQLiteConfig{})
	assert.Error(t, err)
}
