package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/graphkart/storefront/internal/events"
	"github.com/graphkart/storefront/internal/logging"
	"github.com/graphkart/storefront/internal/models"
	"github.com/graphkart/storefront/internal/transport"
	"github.com/graphkart/storefront/internal/util"
)

const (
	defaultAlsoViewed = 5
	maxAlsoViewed     = 50
)

type CatalogService struct {
	Products   ProductRepo
	Categories CategoryRepo
	// Search is optional; the graph search is used when nil.
	Search SearchIndex
	Events events.Publisher
}

type SearchResult struct {
	Total    int64            `json:"total"`
	Products []models.Product `json:"products"`
	Meta     util.Meta        `json:"meta"`
}

func (s *CatalogService) ListProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, error) {
	return s.Products.ListProducts(ctx, q)
}

func (s *CatalogService) ProductNames(ctx context.Context) ([]string, error) {
	return s.Products.ProductNames(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("id is required")
	}
	p, err := s.Products.GetProduct(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "product "+id)
	}
	return p, nil
}

// CreateProduct stores a product; categoryName overrides the body category.
func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest, categoryName string) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product")

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if req.Price < 0 {
		return nil, invalid("price must be >= 0")
	}

	category := strings.TrimSpace(categoryName)
	if category == "" {
		category = strings.TrimSpace(req.Category)
	}

	p := &models.Product{
		ID:          strings.TrimSpace(req.ID),
		Name:        name,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Tags:        req.Tags,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	if err := s.Products.CreateProduct(ctx, p, category); err != nil {
		return nil, fromRepo(err, "product "+p.ID)
	}

	if s.Search != nil {
		if err := s.Search.IndexProduct(ctx, *p); err != nil {
			l.Warn("search_index_failed", "product_id", p.ID, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProducts, p.ID, map[string]any{
		"type":     "product_created",
		"id":       p.ID,
		"name":     p.Name,
		"price":    p.Price,
		"category": category,
	})
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_product", "product_id", id)

	if strings.TrimSpace(id) == "" {
		return invalid("id is required")
	}
	if err := s.Products.DeleteProduct(ctx, id); err != nil {
		return fromRepo(err, "product "+id)
	}
	if s.Search != nil {
		if err := s.Search.DeleteProduct(ctx, id); err != nil {
			l.Warn("search_delete_failed", "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProducts, id, map[string]any{"type": "product_deleted", "id": id})
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}
	return s.Categories.MergeCategory(ctx, name)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Categories.ListCategories(ctx)
}

func (s *CatalogService) SearchProducts(ctx context.Context, q string, page, size int) (*SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, invalid("q is required")
	}
	if page > util.MaxPage(size) {
		return nil, invalid("page out of range")
	}
	from, limit := util.Calculate(page, size)

	var (
		total int64
		items []models.Product
		err   error
	)
	if s.Search != nil {
		total, items, err = s.Search.Search(ctx, q, from, limit)
	} else {
		total, items, err = s.Products.SearchProducts(ctx, q, from, limit)
	}
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Product{}
	}
	if page < 1 {
		page = 1
	}
	return &SearchResult{Total: total, Products: items, Meta: util.NewMeta(page, limit, total)}, nil
}

func (s *CatalogService) AlsoViewed(ctx context.Context, id string, limit int) ([]models.Product, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAlsoViewed
	}
	if limit > maxAlsoViewed {
		limit = maxAlsoViewed
	}
	return s.Products.AlsoViewed(ctx, id, limit)
}
