package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

// Validate aborts on settings the server cannot start without.
func (c Config) Validate() {
	MustNonEmptyBytes(c.JWTAccessSecret, "JWT_SECRET")
	MustNonEmptyBytes(c.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	if c.GraphBackend == "neo4j" {
		MustNonEmpty(c.Neo4jURI, "NEO4J_URI")
		MustNonEmpty(c.Neo4jUser, "NEO4J_USER")
	}
}
