package repo

import (
	"context"

	"github.com/graphkart/storefront/internal/graph"
	"github.com/graphkart/storefront/internal/models"
)

func wishlistName(username string) string {
	return username + "_wishlist"
}

func (r *GraphRepo) AddToWishlist(ctx context.Context, username, productID string) error {
	res, err := r.Runner.Run(ctx, `MATCH (p:Product {id: $productId})
MATCH (u:User {username: $username})
MERGE (u)-[:OWNS]->(w:Wishlist {name: $wishlistName})
MERGE (w)-[:HAS]->(p)
RETURN p.id AS productId`, map[string]any{
		"productId":    productID,
		"username":     username,
		"wishlistName": wishlistName(username),
	})
	if err != nil {
		return err
	}
	if len(res.Records) == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GraphRepo) GetWishlist(ctx context.Context, username string) ([]models.Product, error) {
	res, err := r.Runner.Run(ctx, `MATCH (:User {username: $username})-[:OWNS]->(:Wishlist)-[:HAS]->(p:Product)
OPTIONAL MATCH (p)-[:BELONGS_TO]->(c:Category)
WITH p, head(collect(c.name)) AS category
RETURN p, category ORDER BY p.name`, map[string]any{"username": username})
	if err != nil {
		return nil, err
	}
	return products(res)
}

func (r *GraphRepo) RemoveFromWishlist(ctx context.Context, username, productID string) error {
	res, err := r.Runner.Run(ctx, `MATCH (:User {username: $username})-[:OWNS]->(:Wishlist)-[h:HAS]->(:Product {id: $productId})
DELETE h
RETURN count(*) AS removed`, map[string]any{"username": username, "productId": productID})
	if err != nil {
		return err
	}
	if len(res.Records) == 0 || graph.IntAt(res.Records[0], "removed") == 0 {
		return ErrNotFound
	}
	return nil
}
