package service

import (
	"context"
	"math"
	"strings"

	"github.com/graphkart/storefront/internal/events"
	"github.com/graphkart/storefront/internal/models"
)

// ActivityService covers wishlists and product views.
type ActivityService struct {
	Wishlists WishlistRepo
	Views     ViewRepo
	Events    events.Publisher
}

func required(username, productID string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(productID) == "" {
		return invalid("userName and productId are required")
	}
	return nil
}

func (s *ActivityService) AddToWishlist(ctx context.Context, username, productID string) error {
	if err := required(username, productID); err != nil {
		return err
	}
	if err := s.Wishlists.AddToWishlist(ctx, username, productID); err != nil {
		return fromRepo(err, "user or product")
	}
	return nil
}

func (s *ActivityService) GetWishlist(ctx context.Context, username string) ([]models.Product, error) {
	if strings.TrimSpace(username) == "" {
		return nil, invalid("userName is required")
	}
	return s.Wishlists.GetWishlist(ctx, username)
}

func (s *ActivityService) RemoveFromWishlist(ctx context.Context, username, productID string) error {
	if err := required(username, productID); err != nil {
		return err
	}
	if err := s.Wishlists.RemoveFromWishlist(ctx, username, productID); err != nil {
		return fromRepo(err, "wishlist item")
	}
	return nil
}

// MarkViewed records a view and returns the user's view count for the product.
func (s *ActivityService) MarkViewed(ctx context.Context, username, productID string) (int64, error) {
	if err := required(username, productID); err != nil {
		return 0, err
	}
	n, err := s.Views.MarkViewed(ctx, username, productID)
	if err != nil {
		return 0, fromRepo(err, "user or product")
	}
	return n, nil
}

type CartService struct {
	Carts  CartRepo
	Events events.Publisher
}

func (s *CartService) Get(ctx context.Context, username string) (*models.Cart, error) {
	items, err := s.Carts.GetCart(ctx, username)
	if err != nil {
		return nil, err
	}
	cart := &models.Cart{Items: items}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	for _, it := range items {
		cart.Count += it.Quantity
		cart.Total += it.Product.Price * float64(it.Quantity)
	}
	cart.Total = math.Round(cart.Total*100) / 100
	return cart, nil
}

func (s *CartService) Add(ctx context.Context, username, productID string, quantity int64) (*models.CartItem, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, invalid("productId is required")
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, invalid("quantity must be > 0")
	}
	item, err := s.Carts.AddToCart(ctx, username, productID, quantity)
	if err != nil {
		return nil, fromRepo(err, "product "+productID)
	}
	publish(ctx, s.Events, events.TopicCart, username, map[string]any{
		"type":      "cart_item_added",
		"username":  username,
		"productId": productID,
		"quantity":  item.Quantity,
	})
	return item, nil
}

// RemoveOne decrements the item and reports whether it left the cart.
func (s *CartService) RemoveOne(ctx context.Context, username, productID string) (bool, *models.CartItem, error) {
	if strings.TrimSpace(productID) == "" {
		return false, nil, invalid("productId is required")
	}
	removed, item, err := s.Carts.DeleteOneFromCart(ctx, username, productID)
	if err != nil {
		return false, nil, fromRepo(err, "cart item "+productID)
	}
	publish(ctx, s.Events, events.TopicCart, username, map[string]any{
		"type":      "cart_item_removed",
		"username":  username,
		"productId": productID,
		"removed":   removed,
	})
	return removed, item, nil
}

func (s *CartService) Clear(ctx context.Context, username string) error {
	if err := s.Carts.ClearCart(ctx, username); err != nil {
		return err
	}
	publish(ctx, s.Events, events.TopicCart, username, map[string]any{"type": "cart_cleared", "username": username})
	return nil
}
