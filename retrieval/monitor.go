package retrieval

import (
	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/storage"
)

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps during a query.
type Monitor interface {
	Start(question string)
	AfterVectorSearch(matches []storage.VectorMatch)
	AfterGraphExpansion(hops map[core.ID]int)
	VectorHit(result *core.RetrievalResult)
	GraphHit(result *core.RetrievalResult)
	HybridHit(result *core.RetrievalResult)
	Finish(results []*core.RetrievalResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterVectorSearch(_ []storage.VectorMatch) {}
func (n *noopMonitor) AfterGraphExpansion(_ map[core.ID]int)     {}
func (n *noopMonitor) VectorHit(_ *core.RetrievalResult)         {}
func (n *noopMonitor) GraphHit(_ *core.RetrievalResult)          {}
func (n *noopMonitor) HybridHit(_ *core.RetrievalResult)         {}
func (n *noopMonitor) Finish(_ []*core.RetrievalResult)          {}

// RecordingMonitor captures the trace of a single query for debug output.
// It is not safe for concurrent use; create one per query.
type RecordingMonitor struct {
	Question string
	Seeds    []storage.VectorMatch
	Expanded map[core.ID]int
	Results  []*core.RetrievalResult
}

var _ Monitor = (*RecordingMonitor)(nil)

func (m *RecordingMonitor) Start(question string) { m.Question = question }

func (m *RecordingMonitor) AfterVectorSearch(matches []storage.VectorMatch) {
	m.Seeds = matches
}

func (m *RecordingMonitor) AfterGraphExpansion(hops map[core.ID]int) {
	m.Expanded = hops
}

func (m *RecordingMonitor) VectorHit(_ *core.RetrievalResult) {}
func (m *RecordingMonitor) GraphHit(_ *core.RetrievalResult)  {}
func (m *RecordingMonitor) HybridHit(_ *core.RetrievalResult) {}

func (m *RecordingMonitor) Finish(results []*core.RetrievalResult) {
	m.Results = results
}
