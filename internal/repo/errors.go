package repo

import (
	"errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func isConstraintError(err error) bool {
	var nerr *neo4j.Neo4jError
	if errors.As(err, &nerr) {
		return nerr.Code == "Neo.ClientError.Schema.ConstraintValidationFailed"
	}
	return false
}
