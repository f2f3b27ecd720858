package neo4j

import (
	"context"
	"fmt"

	neo4jv5 "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphDBStorage implements store.GraphStorage on Neo4j.
type GraphDBStorage struct {
	driver   neo4jv5.DriverWithContext
	database string
}

// NewGraphDBStorageParams configures the Neo4j connection.
type NewGraphDBStorageParams struct {
	URI      string
	Username string
	Password string
	Database string
}

// NewGraphDBStorage connects to Neo4j and verifies the connection.
func NewGraphDBStorage(
	ctx context.Context,
	params NewGraphDBStorageParams,
) (*GraphDBStorage, error) {
	driver, err := neo4jv5.NewDriverWithContext(
		params.URI,
		neo4jv5.BasicAuth(params.Username, params.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	return NewGraphDBStorageWithDriver(driver, params.Database), nil
}

// NewGraphDBStorageWithDriver wraps an existing driver. An empty database
// uses the server default.
func NewGraphDBStorageWithDriver(driver neo4jv5.DriverWithContext, database string) *GraphDBStorage {
	return &GraphDBStorage{
		driver:   driver,
		database: database,
	}
}

// Close releases the driver.
func (s *GraphDBStorage) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *GraphDBStorage) session(ctx context.Context, mode neo4jv5.AccessMode) neo4jv5.SessionWithContext {
	return s.driver.NewSession(ctx, neo4jv5.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

// EnsureIndexes creates the entity constraint and the full-text index the
// fuzzy lookup relies on, if they do not exist yet.
func (s *GraphDBStorage) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		_, err := neo4jv5.ExecuteQuery(
			ctx, s.driver, stmt, nil,
			neo4jv5.EagerResultTransformer,
			neo4jv5.ExecuteQueryWithDatabase(s.database),
		)
		if err != nil {
			return fmt.Errorf("failed to apply schema statement %q: %w", stmt, err)
		}
	}
	return nil
}

// Ping verifies the driver can reach the server.
func (s *GraphDBStorage) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}
