package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/panyam/mesto"
	"github.com/panyam/mesto/stores/storetest"
)

// Set MESTO_TEST_MONGO_URI (e.g. mongodb://localhost:27017) to run these.
func TestMongoStores(t *testing.T) {
	uri := os.Getenv("MESTO_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("MESTO_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, zaptest.NewLogger(t), uri, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("mesto_test_" + mesto.NewID().String())
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	require.NoError(t, EnsureIndexes(ctx, db))

	storetest.Run(t, NewUserStore(db), NewCardStore(db))
}
