package repo

import (
	"context"

	"github.com/graphkart/storefront/internal/graph"
	"github.com/graphkart/storefront/internal/models"
)

func (r *GraphRepo) GetCart(ctx context.Context, username string) ([]models.CartItem, error) {
	res, err := r.Runner.Run(ctx, `MATCH (:User {username: $username})-[r:IN_CART]->(p:Product)
RETURN p, r.quantity AS quantity ORDER BY p.name`, map[string]any{"username": username})
	if err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(res.Records))
	for _, rec := range res.Records {
		node, err := graph.NodeAt(rec, "p")
		if err != nil {
			return nil, err
		}
		items = append(items, models.CartItem{
			Product:  productFromNode(node, ""),
			Quantity: graph.IntAt(rec, "quantity"),
		})
	}
	return items, nil
}

func (r *GraphRepo) AddToCart(ctx context.Context, username, productID string, quantity int64) (*models.CartItem, error) {
	res, err := r.Runner.Run(ctx, `MATCH (u:User {username: $username})
MATCH (p:Product {id: $productId})
MERGE (u)-[r:IN_CART]->(p)
ON CREATE SET r.quantity = $quantity
ON MATCH SET r.quantity = r.quantity + $quantity
RETURN p, r.quantity AS quantity`, map[string]any{
		"username":  username,
		"productId": productID,
		"quantity":  quantity,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, ErrNotFound
	}
	node, err := graph.NodeAt(res.Records[0], "p")
	if err != nil {
		return nil, err
	}
	return &models.CartItem{
		Product:  productFromNode(node, ""),
		Quantity: graph.IntAt(res.Records[0], "quantity"),
	}, nil
}

// DeleteOneFromCart decrements the quantity and drops the edge at zero.
// It reports whether the item left the cart.
func (r *GraphRepo) DeleteOneFromCart(ctx context.Context, username, productID string) (bool, *models.CartItem, error) {
	res, err := r.Runner.Run(ctx, `MATCH (:User {username: $username})-[r:IN_CART]->(p:Product {id: $productId})
WITH r, p, r.quantity AS before
FOREACH (_ IN CASE WHEN before > 1 THEN [1] ELSE [] END | SET r.quantity = before - 1)
FOREACH (_ IN CASE WHEN before <= 1 THEN [1] ELSE [] END | DELETE r)
RETURN p, before - 1 AS quantity`, map[string]any{"username": username, "productId": productID})
	if err != nil {
		return false, nil, err
	}
	if len(res.Records) == 0 {
		return false, nil, ErrNotFound
	}
	node, err := graph.NodeAt(res.Records[0], "p")
	if err != nil {
		return false, nil, err
	}
	item := &models.CartItem{
		Product:  productFromNode(node, ""),
		Quantity: graph.IntAt(res.Records[0], "quantity"),
	}
	return item.Quantity <= 0, item, nil
}

func (r *GraphRepo) ClearCart(ctx context.Context, username string) error {
	_, err := r.Runner.Run(ctx, `MATCH (:User {username: $username})-[r:IN_CART]->(:Product)
DELETE r`, map[string]any{"username": username})
	return err
}
