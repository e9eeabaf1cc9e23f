package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schale-tools/baad/pkg/cache"
)

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(newTestStore(t), 5*time.Second, "baad-test/1.0")
}
