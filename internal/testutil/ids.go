// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"sync"
)

// RunIDs hands out sequential run ids ("run-001", "run-002", ...) so that
// manifest tests get stable, ordered ids instead of UUIDv7 values.
//
// Safe for concurrent use.
type RunIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewRunIDs creates a generator whose first id is <prefix>-001.
// An empty prefix means "run".
func NewRunIDs(prefix string) *RunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &RunIDs{prefix: prefix}
}

// Next returns the next id.
func (g *RunIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%03d", g.prefix, g.seq)
}

// Issued returns how many ids have been handed out.
func (g *RunIDs) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset starts the sequence over.
func (g *RunIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
