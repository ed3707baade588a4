package services

import (
	"context"
	"errors"
	"strings"
	"sync"
)

const (
	// MinLinkQueryLen is the shortest query the linker will run.
	MinLinkQueryLen = 2
	linkResultLimit = 20
)

// ErrSearchSuperseded reports that a newer query was issued while this
// one ran, so its results must not be shown.
var ErrSearchSuperseded = errors.New("search superseded by newer query")

// ReferenceLinker runs the catalog-picker sub-flow for one dish row.
// Queries are sequenced: only the newest query's results surface, so a
// slow early search can never overwrite a fast later one.
type ReferenceLinker struct {
	catalog CatalogService

	mu     sync.Mutex
	latest uint64
}

func NewReferenceLinker(catalog CatalogService) *ReferenceLinker {
	return &ReferenceLinker{catalog: catalog}
}

// Search runs a catalog query. Under-length queries return an empty set
// without touching the catalog. If a newer Search started before this
// one finished, it returns ErrSearchSuperseded and the results are
// discarded.
func (l *ReferenceLinker) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinLinkQueryLen {
		// Short queries also invalidate any in-flight search, matching
		// the clear-on-backspace behavior.
		l.mu.Lock()
		l.latest++
		l.mu.Unlock()
		return []SearchResult{}, nil
	}

	l.mu.Lock()
	l.latest++
	seq := l.latest
	l.mu.Unlock()

	results, err := l.catalog.Search(ctx, query, linkResultLimit)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	stale := seq != l.latest
	l.mu.Unlock()
	if stale {
		return nil, ErrSearchSuperseded
	}
	return results, nil
}
