// Package backend holds the document sources the orchestrator can query.
package backend

import (
	"context"

	"context-retriever-be/pkg/store"
)

const (
	NameIndexed = "indexed"
	NameWeb     = "web"
)

// Backend answers a query with at most its configured number of documents.
// Search never fails: faults are logged and produce an empty slice.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string) []store.Document
}

func empty() []store.Document {
	return []store.Document{}
}
