package retrieval

import (
	"github.com/poiesic/pedsafe/core"
	"github.com/poiesic/pedsafe/filter"
)

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(question, drug string)
	AfterDeconstruction(parsed core.ParsedQuery)
	AfterSemanticSearch(matches []Match, degraded bool)
	AfterFilter(stages filter.Stages)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                      {}
func (n *noopMonitor) AfterDeconstruction(_ core.ParsedQuery) {}
func (n *noopMonitor) AfterSemanticSearch(_ []Match, _ bool)  {}
func (n *noopMonitor) AfterFilter(_ filter.Stages)            {}
func (n *noopMonitor) Finish(_ *Result)                       {}
