package search

import (
	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/similarity"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterEncode(vector []float32, err error)
	AfterRank(matches []similarity.Match)
	Dropped(id core.ID, err error)
	AfterLookup(sections []*core.Section)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                   {}
func (n *noopMonitor) AfterEncode(_ []float32, _ error) {}
func (n *noopMonitor) AfterRank(_ []similarity.Match)   {}
func (n *noopMonitor) Dropped(_ core.ID, _ error)       {}
func (n *noopMonitor) AfterLookup(_ []*core.Section)    {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)    {}
