package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/clebronrivera/reading-compass-sub001/internal/schema"
)

// transformFunc turns schema-valid, reference-valid rows into typed records
// and writes them through the store, accumulating counts and errors on the
// job. One transform is registered per import type.
type transformFunc func(ctx context.Context, s *Service, job *importJob)

var (
	transforms   = make(map[schema.ImportType]transformFunc)
	transformsMu sync.RWMutex
)

// register adds a transform for an import type.
// Panics if the type is already registered.
func register(t schema.ImportType, fn transformFunc) {
	transformsMu.Lock()
	defer transformsMu.Unlock()
	if _, exists := transforms[t]; exists {
		panic(fmt.Sprintf("import transform already registered: %s", t))
	}
	transforms[t] = fn
}

func lookupTransform(t schema.ImportType) (transformFunc, bool) {
	transformsMu.RLock()
	defer transformsMu.RUnlock()
	fn, ok := transforms[t]
	return fn, ok
}
