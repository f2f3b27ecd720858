package neo4j

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/madewith/chatbot/backend/pkg/common"
	"github.com/madewith/chatbot/backend/pkg/store"

	neo4jv5 "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const (
	baseEntityLabel     = "__Entity__"
	defaultEntityLabel  = "Entity"
	defaultRelationType = "RELATED_TO"
)

type statement struct {
	cypher string
	params map[string]any
}

// MergeDocuments writes every document with its nodes and relationships in
// a single write transaction. Nodes and relationships are merged on id, so
// repeated ingestion of the same facts does not duplicate them.
func (s *GraphDBStorage) MergeDocuments(
	ctx context.Context,
	docs []common.GraphDocument,
	opts store.MergeOptions,
) error {
	if len(docs) == 0 {
		return nil
	}

	statements := make([]statement, 0)
	for _, doc := range docs {
		statements = append(statements, buildMergeStatements(doc, opts)...)
	}

	session := s.session(ctx, neo4jv5.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4jv5.ManagedTransaction) (any, error) {
		for _, st := range statements {
			res, err := tx.Run(ctx, st.cypher, st.params)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to merge %d graph documents: %w", len(docs), err)
	}

	return nil
}

func buildMergeStatements(doc common.GraphDocument, opts store.MergeOptions) []statement {
	source := doc.Source
	if source.ID == "" {
		source = common.NewDocument(source.Text, source.Metadata)
	}

	out := make([]statement, 0)
	if opts.IncludeSource {
		metadata := source.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		out = append(out, statement{
			cypher: "MERGE (d:Document {id: $id}) SET d.text = $text SET d += $metadata",
			params: map[string]any{
				"id":       source.ID,
				"text":     source.Text,
				"metadata": metadata,
			},
		})
	}

	out = append(out, buildNodeStatements(source.ID, doc.Nodes, opts)...)
	out = append(out, buildRelationshipStatements(doc.Relationships, opts)...)
	return out
}

func buildNodeStatements(docID string, nodes []common.Node, opts store.MergeOptions) []statement {
	order := make([]string, 0)
	rows := make(map[string][]map[string]any)
	for _, n := range nodes {
		if strings.TrimSpace(n.ID) == "" {
			continue
		}
		label := SanitizeLabel(n.Type)
		if _, ok := rows[label]; !ok {
			order = append(order, label)
		}
		rows[label] = append(rows[label], map[string]any{"id": n.ID})
	}

	out := make([]statement, 0, len(order))
	for _, label := range order {
		var b strings.Builder
		b.WriteString("UNWIND $rows AS row ")
		b.WriteString(mergeNodeClause("n", label, "row.id", opts))
		if opts.BaseEntityLabel && label != "" {
			fmt.Fprintf(&b, " SET n:`%s`", label)
		}
		params := map[string]any{"rows": rows[label]}
		if opts.IncludeSource {
			b.WriteString(" WITH n MATCH (d:Document {id: $docId}) MERGE (d)-[:MENTIONS]->(n)")
			params["docId"] = docID
		}
		out = append(out, statement{cypher: b.String(), params: params})
	}
	return out
}

type relationshipKey struct {
	relType     string
	sourceLabel string
	targetLabel string
}

func buildRelationshipStatements(rels []common.Relationship, opts store.MergeOptions) []statement {
	order := make([]relationshipKey, 0)
	rows := make(map[relationshipKey][]map[string]any)
	for _, r := range rels {
		if strings.TrimSpace(r.Source.ID) == "" || strings.TrimSpace(r.Target.ID) == "" {
			continue
		}
		key := relationshipKey{relType: SanitizeRelationshipType(r.Type)}
		if !opts.BaseEntityLabel {
			key.sourceLabel = SanitizeLabel(r.Source.Type)
			key.targetLabel = SanitizeLabel(r.Target.Type)
		}
		if _, ok := rows[key]; !ok {
			order = append(order, key)
		}
		rows[key] = append(rows[key], map[string]any{
			"source": r.Source.ID,
			"target": r.Target.ID,
		})
	}

	out := make([]statement, 0, len(order))
	for _, key := range order {
		cypher := fmt.Sprintf(
			"UNWIND $rows AS row %s %s MERGE (s)-[:`%s`]->(t)",
			mergeNodeClause("s", key.sourceLabel, "row.source", opts),
			mergeNodeClause("t", key.targetLabel, "row.target", opts),
			key.relType,
		)
		out = append(out, statement{
			cypher: cypher,
			params: map[string]any{"rows": rows[key]},
		})
	}
	return out
}

func mergeNodeClause(variable, label, idExpr string, opts store.MergeOptions) string {
	if opts.BaseEntityLabel {
		return fmt.Sprintf("MERGE (%s:%s {id: %s})", variable, baseEntityLabel, idExpr)
	}
	if label == "" {
		label = defaultEntityLabel
	}
	return fmt.Sprintf("MERGE (%s:`%s` {id: %s})", variable, label, idExpr)
}

// SanitizeLabel turns a model-provided node type into a safe Cypher label.
// Whitespace becomes "_" and anything other than letters, digits and "_" is
// dropped.
func SanitizeLabel(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	return b.String()
}

// SanitizeRelationshipType upper-cases a sanitized label and falls back to
// RELATED_TO when nothing usable is left.
func SanitizeRelationshipType(s string) string {
	t := strings.ToUpper(SanitizeLabel(s))
	if t == "" {
		return defaultRelationType
	}
	return t
}
