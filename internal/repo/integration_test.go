package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphkart/storefront/internal/graph"
	"github.com/graphkart/storefront/internal/models"
)

func openTestGraph(t *testing.T) *GraphRepo {
	t.Helper()

	uri := os.Getenv("NEO4J_TEST_URI")
	if uri == "" {
		t.Skip("NEO4J_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exec, err := graph.Open(ctx, uri, os.Getenv("NEO4J_TEST_USER"), os.Getenv("NEO4J_TEST_PASSWORD"), os.Getenv("NEO4J_TEST_DATABASE"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = exec.Close(context.Background()) })
	require.NoError(t, graph.EnsureSchema(ctx, exec))

	return &GraphRepo{Runner: exec}
}

func TestIntegration_ProductLifecycle(t *testing.T) {
	r := openTestGraph(t)
	ctx := context.Background()

	cat := "it-" + uuid.NewString()
	cheap := &models.Product{ID: uuid.NewString(), Name: "cheap", Price: 1}
	dear := &models.Product{ID: uuid.NewString(), Name: "dear", Price: 99}
	require.NoError(t, r.CreateProduct(ctx, dear, cat))
	require.NoError(t, r.CreateProduct(ctx, cheap, cat))
	t.Cleanup(func() {
		_ = r.DeleteProduct(context.Background(), cheap.ID)
		_ = r.DeleteProduct(context.Background(), dear.ID)
	})

	items, err := r.ListProducts(ctx, models.ProductQuery{Category: cat, SortBy: "price"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, cheap.ID, items[0].ID)

	items, err = r.ListProducts(ctx, models.ProductQuery{Category: cat, SortBy: "price", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, dear.ID, items[0].ID)

	require.ErrorIs(t, r.CreateProduct(ctx, &models.Product{ID: cheap.ID, Name: "dup"}, ""), ErrAlreadyExists)

	_, err = r.GetProduct(ctx, uuid.NewString())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIntegration_UserRegistrationConflict(t *testing.T) {
	r := openTestGraph(t)
	ctx := context.Background()

	name := "it-" + uuid.NewString()
	email := name + "@Example.com"
	require.NoError(t, r.CreateUser(ctx, &models.User{Username: name, Email: email, Token: uuid.NewString(), Role: models.RoleUser}))
	t.Cleanup(func() {
		_, _ = r.Runner.Run(context.Background(), "MATCH (u:User {username: $u}) DETACH DELETE u", map[string]any{"u": name})
	})

	err := r.CreateUser(ctx, &models.User{Username: name + "-2", Email: name + "@example.COM", Role: models.RoleUser})
	require.ErrorIs(t, err, ErrAlreadyExists)
}
