package repo

import (
	"context"

	"github.com/graphkart/storefront/internal/graph"
)

// MarkViewed merges the VIEWED edge and returns how often the user viewed the product.
func (r *GraphRepo) MarkViewed(ctx context.Context, username, productID string) (int64, error) {
	res, err := r.Runner.Run(ctx, `MATCH (u:User {username: $username})
MATCH (p:Product {id: $productId})
MERGE (u)-[v:VIEWED]->(p)
ON CREATE SET v.count = 1, v.firstAt = datetime(), v.lastAt = datetime()
ON MATCH SET v.count = coalesce(v.count, 0) + 1, v.lastAt = datetime()
RETURN v.count AS count`, map[string]any{"username": username, "productId": productID})
	if err != nil {
		return 0, err
	}
	if len(res.Records) == 0 {
		return 0, ErrNotFound
	}
	return graph.IntAt(res.Records[0], "count"), nil
}
