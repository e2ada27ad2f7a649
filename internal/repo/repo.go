// Package repo maps storefront operations to Cypher queries.
package repo

import (
	"errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/graphkart/storefront/internal/graph"
	"github.com/graphkart/storefront/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

type GraphRepo struct {
	Runner graph.Runner
}

func productFromNode(node neo4j.Node, category string) models.Product {
	return models.Product{
		ID:          graph.String(node.Props, "id"),
		Name:        graph.String(node.Props, "name"),
		Price:       graph.Float(node.Props, "price"),
		ImageURL:    graph.FileName(graph.String(node.Props, "imageUrl")),
		Description: graph.String(node.Props, "description"),
		Tags:        graph.Strings(node.Props, "tags"),
		Category:    category,
	}
}

func userFromNode(node neo4j.Node) models.User {
	u := models.User{
		Username:     graph.String(node.Props, "username"),
		Email:        graph.String(node.Props, "email"),
		PasswordHash: graph.String(node.Props, "passwordHash"),
		Token:        graph.String(node.Props, "token"),
		Verified:     graph.Bool(node.Props, "verified"),
		Role:         graph.String(node.Props, "role"),
		CreatedAt:    graph.Time(node.Props, "createdAt"),
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	return u
}

// products maps rows shaped as (p, category).
func products(res *neo4j.EagerResult) ([]models.Product, error) {
	items := make([]models.Product, 0, len(res.Records))
	for _, rec := range res.Records {
		node, err := graph.NodeAt(rec, "p")
		if err != nil {
			return nil, err
		}
		items = append(items, productFromNode(node, graph.StringAt(rec, "category")))
	}
	return items, nil
}
