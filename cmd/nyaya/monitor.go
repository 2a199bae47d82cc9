package main

import (
	"fmt"
	"io"
	"time"

	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/search"
	"github.com/poiesic/nyaya/similarity"
)

// traceMonitor prints each search stage, for `search --explain`.
type traceMonitor struct {
	w     io.Writer
	start time.Time
}

var _ search.SearchMonitor = (*traceMonitor)(nil)

func newTraceMonitor(w io.Writer) *traceMonitor {
	return &traceMonitor{w: w}
}

// orNil keeps a nil *traceMonitor from becoming a non-nil interface.
func (m *traceMonitor) orNil() search.SearchMonitor {
	if m == nil {
		return nil
	}
	return m
}

func (m *traceMonitor) Start(query string) {
	m.start = time.Now()
	fmt.Fprintf(m.w, "query: %q\n", query)
}

func (m *traceMonitor) AfterEncode(vector []float32, err error) {
	nonZero := 0
	for _, v := range vector {
		if v != 0 {
			nonZero++
		}
	}
	fmt.Fprintf(m.w, "encoded: %d components, %d non-zero\n", len(vector), nonZero)
	if err != nil {
		fmt.Fprintf(m.w, "encode error: %v\n", err)
	}
}

func (m *traceMonitor) AfterRank(matches []similarity.Match) {
	fmt.Fprintf(m.w, "ranked: %d candidates\n", len(matches))
	for _, match := range matches {
		fmt.Fprintf(m.w, "  id %d  cosine %.4f\n", match.Id, match.Score)
	}
}

func (m *traceMonitor) Dropped(id core.ID, err error) {
	fmt.Fprintf(m.w, "dropped: id %d: %v\n", id, err)
}

func (m *traceMonitor) AfterLookup(sections []*core.Section) {
	fmt.Fprintf(m.w, "fetched: %d sections\n", len(sections))
}

func (m *traceMonitor) Finish(results []*core.SearchResult) {
	fmt.Fprintf(m.w, "done: %d results in %v\n", len(results), time.Since(m.start).Round(time.Microsecond))
}
