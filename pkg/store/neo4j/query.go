package neo4j

import (
	"context"
	"fmt"

	neo4jv5 "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// FulltextEntityIndex is the full-text index over entity ids.
const FulltextEntityIndex = "fulltext_entity_id"

var schemaStatements = []string{
	"CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (e:__Entity__) REQUIRE e.id IS UNIQUE",
	"CREATE CONSTRAINT document_id IF NOT EXISTS FOR (d:Document) REQUIRE d.id IS UNIQUE",
	"CREATE FULLTEXT INDEX " + FulltextEntityIndex + " IF NOT EXISTS FOR (e:__Entity__) ON EACH [e.id]",
}

// neighbourhoodQuery returns outgoing facts first, then incoming ones,
// skipping the MENTIONS links between documents and entities.
const neighbourhoodQuery = `
CALL db.index.fulltext.queryNodes($index, $query, {limit: $limit})
YIELD node, score
CALL {
  WITH node
  MATCH (node)-[r:!MENTIONS]->(neighbor)
  RETURN node.id + ' - ' + type(r) + ' -> ' + neighbor.id AS output
  UNION ALL
  WITH node
  MATCH (node)<-[r:!MENTIONS]-(neighbor)
  RETURN neighbor.id + ' - ' + type(r) + ' -> ' + node.id AS output
}
RETURN output LIMIT 50
`

// FuzzyQuery matches query against the full-text index and returns up to
// 50 neighbourhood facts of the matched nodes.
func (s *GraphDBStorage) FuzzyQuery(
	ctx context.Context,
	index string,
	query string,
	limit int,
) ([]string, error) {
	session := s.session(ctx, neo4jv5.AccessModeRead)
	defer session.Close(ctx)

	facts, err := neo4jv5.ExecuteRead(ctx, session, func(tx neo4jv5.ManagedTransaction) ([]string, error) {
		res, err := tx.Run(ctx, neighbourhoodQuery, map[string]any{
			"index": index,
			"query": query,
			"limit": limit,
		})
		if err != nil {
			return nil, err
		}

		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		out := make([]string, 0, len(records))
		for _, record := range records {
			if fact := getStringFromRecord(record, "output"); fact != "" {
				out = append(out, fact)
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbourhood: %w", err)
	}

	return facts, nil
}

func getStringFromRecord(record *neo4jv5.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}
