package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/JonMunkholm/stockpilot/internal/core"
	"github.com/JonMunkholm/stockpilot/internal/store/storetest"
)

// testURLEnv names a disposable database. Its tables are dropped.
const testURLEnv = "STOCKPILOT_TEST_POSTGRES_URL"

func TestRepositorySuite(t *testing.T) {
	url := os.Getenv(testURLEnv)
	if url == "" {
		t.Skipf("%s not set", testURLEnv)
	}

	suite.Run(t, &storetest.RepositorySuite{
		Open: func() core.Repository {
			ctx := context.Background()
			repo, err := Connect(ctx, Config{URL: url, MaxConns: 4})
			require.NoError(t, err)
			_, err = repo.db.Exec(ctx, `DROP TABLE IF EXISTS inventory_logs, products`)
			require.NoError(t, err)
			return repo
		},
	})
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), Config{URL: "postgres://%zz"})
	require.Error(t, err)
}
