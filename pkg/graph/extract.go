package graph

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/madewith/chatbot/backend/pkg/ai"
	"github.com/madewith/chatbot/backend/pkg/common"
)

type extractNode struct {
	ID   string `json:"id" jsonschema_description:"Name or human-readable unique identifier of the entity"`
	Type string `json:"type" jsonschema_description:"The type or label of the entity, e.g. Person, Product, Organization"`
}

type extractRelationship struct {
	SourceID   string `json:"source_id" jsonschema_description:"Id of the source node"`
	SourceType string `json:"source_type" jsonschema_description:"Type of the source node"`
	TargetID   string `json:"target_id" jsonschema_description:"Id of the target node"`
	TargetType string `json:"target_type" jsonschema_description:"Type of the target node"`
	Type       string `json:"type" jsonschema_description:"Type of the relationship in UPPER_SNAKE_CASE"`
}

type extractResponse struct {
	Nodes         []extractNode         `json:"nodes" jsonschema_description:"Entities found in the text"`
	Relationships []extractRelationship `json:"relationships" jsonschema_description:"Relationships between the entities"`
}

// GraphExtractor turns a document into nodes and relationships with a
// structured model call.
type GraphExtractor struct {
	client ai.FormatCompleter
	model  string
}

// NewGraphExtractor creates an extractor. An empty model uses the client's
// extraction model.
func NewGraphExtractor(client ai.FormatCompleter, model string) *GraphExtractor {
	return &GraphExtractor{client: client, model: model}
}

// Extract returns the graph of doc. The document itself becomes the source
// of the returned GraphDocument.
func (e *GraphExtractor) Extract(ctx context.Context, doc common.Document) (common.GraphDocument, error) {
	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(ai.GraphExtractSystemPrompt),
		ai.WithTemperature(0),
	}
	if e.model != "" {
		opts = append(opts, ai.WithModel(e.model))
	}

	var res extractResponse
	err := e.client.GenerateCompletionWithFormat(
		ctx,
		"knowledge_graph",
		"Nodes and relationships extracted from a text.",
		fmt.Sprintf(ai.GraphExtractPrompt, doc.Text),
		&res,
		opts...,
	)
	if err != nil {
		return common.GraphDocument{}, fmt.Errorf("failed to extract graph: %w", err)
	}

	return toGraphDocument(doc, res), nil
}

func toGraphDocument(doc common.Document, res extractResponse) common.GraphDocument {
	seen := make(map[common.Node]struct{}, len(res.Nodes))
	nodes := make([]common.Node, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		node := normalizeNode(n.ID, n.Type)
		if node.ID == "" {
			continue
		}
		if _, ok := seen[node]; ok {
			continue
		}
		seen[node] = struct{}{}
		nodes = append(nodes, node)
	}

	rels := make([]common.Relationship, 0, len(res.Relationships))
	for _, r := range res.Relationships {
		source := normalizeNode(r.SourceID, r.SourceType)
		target := normalizeNode(r.TargetID, r.TargetType)
		if source.ID == "" || target.ID == "" {
			continue
		}
		rels = append(rels, common.Relationship{
			Source: source,
			Target: target,
			Type:   normalizeRelationshipType(r.Type),
		})
	}

	return common.GraphDocument{
		Source:        doc,
		Nodes:         nodes,
		Relationships: rels,
	}
}

func normalizeNode(id, typ string) common.Node {
	return common.Node{
		ID:   strings.TrimSpace(id),
		Type: capitalize(strings.TrimSpace(typ)),
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func normalizeRelationshipType(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), "_"))
}
