package pgstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ib-77/cellarfeed/pkg/catalog"
	"github.com/ib-77/cellarfeed/pkg/catalog/catalogtest"
)

func TestStore(t *testing.T) {
	dsn := os.Getenv("CELLARFEED_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CELLARFEED_TEST_POSTGRES_DSN not set")
	}

	catalogtest.RunStoreSuite(t, func(t *testing.T) catalog.Store {
		ctx := context.Background()
		s, err := Open(ctx, dsn, 4)
		require.NoError(t, err)
		t.Cleanup(func() {
			_, _ = s.pool.Exec(ctx, `TRUNCATE products, producers`)
			s.Close()
		})
		return s
	})
}
