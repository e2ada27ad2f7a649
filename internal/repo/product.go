package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/saulfrancisco-ruizacevedo/gocypher"

	"github.com/graphkart/storefront/internal/graph"
	"github.com/graphkart/storefront/internal/models"
)

// sortClause whitelists the sortable fields; the order expression is never
// built from client input.
func sortClause(sortBy string, desc bool) string {
	var field string
	switch strings.ToLower(sortBy) {
	case models.SortPrice:
		field = "p.price"
	case models.SortName:
		field = "p.name"
	default:
		return ""
	}
	if desc {
		return " ORDER BY " + field + " DESC"
	}
	return " ORDER BY " + field + " ASC"
}

func (r *GraphRepo) ListProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, error) {
	order := sortClause(q.SortBy, q.Desc)
	params := map[string]any{}

	var query string
	if q.Category != "" {
		query = `MATCH (p:Product)-[:BELONGS_TO]->(c:Category {name: $category})
RETURN p, c.name AS category` + order
		params["category"] = q.Category
	} else {
		query = `MATCH (p:Product)
OPTIONAL MATCH (p)-[:BELONGS_TO]->(c:Category)
WITH p, head(collect(c.name)) AS category
RETURN p, category` + order
	}

	res, err := r.Runner.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return products(res)
}

func (r *GraphRepo) ProductNames(ctx context.Context) ([]string, error) {
	res, err := r.Runner.Run(ctx, "MATCH (p:Product) RETURN p.name AS name", nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		names = append(names, graph.StringAt(rec, "name"))
	}
	return names, nil
}

func (r *GraphRepo) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	res, err := r.Runner.Run(ctx, `MATCH (p:Product {id: $id})
OPTIONAL MATCH (p)-[:BELONGS_TO]->(c:Category)
RETURN p, head(collect(c.name)) AS category`, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	items, err := products(res)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

func productParams(p *models.Product) map[string]any {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"price":       p.Price,
		"imageUrl":    p.ImageURL,
		"description": p.Description,
		"tags":        tags,
	}
}

const productProps = `{
    id: $id,
    name: $name,
    price: $price,
    imageUrl: $imageUrl,
    description: $description,
    tags: $tags,
    createdAt: datetime()
}`

// CreateProduct stores the product and, when category is set, links it to
// the merged category node.
func (r *GraphRepo) CreateProduct(ctx context.Context, p *models.Product, category string) error {
	params := productParams(p)

	query := "CREATE (p:Product " + productProps + ")\nRETURN p"
	if category != "" {
		query = "MERGE (c:Category {name: $categoryName})\nCREATE (p:Product " + productProps + ")\nMERGE (p)-[:BELONGS_TO]->(c)\nRETURN p"
		params["categoryName"] = category
	}

	res, err := r.Runner.Run(ctx, query, params)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("product %s: %w", p.ID, ErrAlreadyExists)
		}
		return err
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("product %s was not created", p.ID)
	}
	p.Category = category
	return nil
}

func (r *GraphRepo) DeleteProduct(ctx context.Context, id string) error {
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("p", "Product").WithProperties(map[string]interface{}{"id": id})).
		DetachDelete("p").
		Return("count(p) AS deleted").
		Build()
	if err != nil {
		return err
	}
	res, err := r.Runner.Run(ctx, query, params)
	if err != nil {
		return err
	}
	if len(res.Records) == 0 || graph.IntAt(res.Records[0], "deleted") == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

const searchWhere = `WHERE toLower(p.name) CONTAINS $q
   OR toLower(coalesce(p.description, '')) CONTAINS $q
   OR any(t IN coalesce(p.tags, []) WHERE toLower(t) CONTAINS $q)`

// SearchProducts is the graph-side search used when no search index is configured.
func (r *GraphRepo) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	if offset < 0 || limit < 0 {
		return 0, nil, fmt.Errorf("search products: negative offset %d or limit %d", offset, limit)
	}
	params := map[string]any{
		"q":      strings.ToLower(q),
		"offset": int64(offset),
		"limit":  int64(limit),
	}

	countRes, err := r.Runner.Run(ctx, "MATCH (p:Product)\n"+searchWhere+"\nRETURN count(p) AS total", params)
	if err != nil {
		return 0, nil, err
	}
	var total int64
	if len(countRes.Records) > 0 {
		total = graph.IntAt(countRes.Records[0], "total")
	}
	if total == 0 {
		return 0, []models.Product{}, nil
	}

	res, err := r.Runner.Run(ctx, "MATCH (p:Product)\n"+searchWhere+`
OPTIONAL MATCH (p)-[:BELONGS_TO]->(c:Category)
WITH p, head(collect(c.name)) AS category
RETURN p, category ORDER BY p.name SKIP $offset LIMIT $limit`, params)
	if err != nil {
		return 0, nil, err
	}
	items, err := products(res)
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// AlsoViewed ranks products by how many viewers of id also viewed them.
func (r *GraphRepo) AlsoViewed(ctx context.Context, id string, limit int) ([]models.Product, error) {
	res, err := r.Runner.Run(ctx, `MATCH (:Product {id: $id})<-[:VIEWED]-(:User)-[:VIEWED]->(p:Product)
WHERE p.id <> $id
WITH p, count(*) AS score
OPTIONAL MATCH (p)-[:BELONGS_TO]->(c:Category)
WITH p, score, head(collect(c.name)) AS category
RETURN p, category
ORDER BY score DESC, p.name ASC
LIMIT $limit`, map[string]any{"id": id, "limit": int64(limit)})
	if err != nil {
		return nil, err
	}
	return products(res)
}
