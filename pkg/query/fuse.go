package query

import (
	"strings"
)

// FuseContext renders graph facts and vector passages into the context
// block handed to the answer model. Facts are newline separated; passages
// are concatenated as-is.
func FuseContext(graphFacts []string, passages []string) string {
	var b strings.Builder
	b.WriteString("Graph data:\n")
	b.WriteString(strings.Join(graphFacts, "\n"))
	b.WriteString("\n\nVector data:\n")
	b.WriteString(strings.Join(passages, ""))
	return b.String()
}
