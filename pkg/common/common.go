package common

import (
	"crypto/md5"
	"encoding/hex"
)

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Question is one incoming chat request. Coordinate is nil when the caller
// did not share a location.
type Question struct {
	Text       string
	Name       string
	Coordinate *Coordinate
}

// LocationIntent is the result of classifying a question. It is derived once
// per question and not modified afterwards.
type LocationIntent struct {
	IsLocationQuery bool     `json:"is_location_query"`
	Products        []string `json:"products"`
}

// RoutesToLocator reports whether the intent diverts the request to the
// store locator instead of the answer flow.
func (i LocationIntent) RoutesToLocator() bool {
	return i.IsLocationQuery && len(i.Products) > 0
}

// OpenStatus is the opening state of a place at query time.
type OpenStatus string

const (
	OpenStatusOpen    OpenStatus = "Open"
	OpenStatusClosed  OpenStatus = "Closed"
	OpenStatusUnknown OpenStatus = "Unknown"
)

// Place is a store candidate returned by the places API.
type Place struct {
	Name     string     `json:"name"`
	Address  string     `json:"address"`
	Location Coordinate `json:"location"`
	Status   OpenStatus `json:"status"`
}

// Document is a piece of source text that graph facts were derived from.
type Document struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewDocument returns a Document whose ID is the md5 hex digest of text, so
// re-ingesting the same text merges into the same node.
func NewDocument(text string, metadata map[string]any) Document {
	sum := md5.Sum([]byte(text))
	return Document{
		ID:       hex.EncodeToString(sum[:]),
		Text:     text,
		Metadata: metadata,
	}
}

// Node is an entity in the knowledge graph, identified by its name.
type Node struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Relationship is a directed, typed edge between two nodes.
type Relationship struct {
	Source Node   `json:"source"`
	Target Node   `json:"target"`
	Type   string `json:"type"`
}

// GraphDocument is the graph extracted from a single source document.
// It is written once and never updated.
type GraphDocument struct {
	Source        Document       `json:"source"`
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// Passage is a chunk of text stored in the vector index.
type Passage struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Text   string `json:"text"`
}
