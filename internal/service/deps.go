package service

import (
	"context"
	"time"

	"github.com/graphkart/storefront/internal/events"
	"github.com/graphkart/storefront/internal/logging"
	"github.com/graphkart/storefront/internal/models"
)

type ProductRepo interface {
	ListProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, error)
	ProductNames(ctx context.Context) ([]string, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product, category string) error
	DeleteProduct(ctx context.Context, id string) error
	SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error)
	AlsoViewed(ctx context.Context, id string, limit int) ([]models.Product, error)
}

type CategoryRepo interface {
	MergeCategory(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	VerifyUser(ctx context.Context, token string) (*models.User, error)
	ResetVerificationToken(ctx context.Context, email, token string) (*models.User, error)
}

type WishlistRepo interface {
	AddToWishlist(ctx context.Context, username, productID string) error
	GetWishlist(ctx context.Context, username string) ([]models.Product, error)
	RemoveFromWishlist(ctx context.Context, username, productID string) error
}

type ViewRepo interface {
	MarkViewed(ctx context.Context, username, productID string) (int64, error)
}

type CartRepo interface {
	GetCart(ctx context.Context, username string) ([]models.CartItem, error)
	AddToCart(ctx context.Context, username, productID string, quantity int64) (*models.CartItem, error)
	DeleteOneFromCart(ctx context.Context, username, productID string) (bool, *models.CartItem, error)
	ClearCart(ctx context.Context, username string) error
}

// Repository is the full graph surface; repo.GraphRepo and repo.MemoryRepo
// implement it.
type Repository interface {
	ProductRepo
	CategoryRepo
	UserRepo
	WishlistRepo
	ViewRepo
	CartRepo
}

type TokenStore interface {
	Save(ctx context.Context, rt models.RefreshToken) error
	Rotate(ctx context.Context, oldJTI string, next models.RefreshToken) error
	RevokeToken(ctx context.Context, token string) error
}

type SearchIndex interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

const publishTimeout = 5 * time.Second

// publish sends the event outside the request's cancellation and only logs failures.
func publish(ctx context.Context, pub events.Publisher, topic, key string, event map[string]any) {
	if pub == nil {
		return
	}
	l := logging.FromContext(ctx)
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event["at"] = time.Now().UTC()
	if err := pub.PublishEvent(pctx, topic, key, event); err != nil {
		l.Warn("event_publish_failed", "topic", topic, "key", key, "error", err)
	}
}
