package repo

import (
	"context"
	"sort"

	"github.com/saulfrancisco-ruizacevedo/gocypher"

	"github.com/graphkart/storefront/internal/graph"
	"github.com/graphkart/storefront/internal/models"
)

func (r *GraphRepo) MergeCategory(ctx context.Context, name string) (*models.Category, error) {
	query, params, err := gocypher.NewQueryBuilder().
		Merge(gocypher.N("c", "Category").WithProperties(map[string]interface{}{"name": name})).
		Return("c").
		Build()
	if err != nil {
		return nil, err
	}
	if _, err := r.Runner.Run(ctx, query, params); err != nil {
		return nil, err
	}
	return &models.Category{Name: name}, nil
}

func (r *GraphRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("c", "Category")).
		Return("c").
		Build()
	if err != nil {
		return nil, err
	}
	res, err := r.Runner.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	out := make([]models.Category, 0, len(res.Records))
	for _, rec := range res.Records {
		node, err := graph.NodeAt(rec, "c")
		if err != nil {
			return nil, err
		}
		out = append(out, models.Category{Name: graph.String(node.Props, "name")})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
