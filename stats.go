package evtree

import "sync/atomic"

// Stats reports a snapshot of a Tree's activity. It is a supplemental,
// additive feature: nothing in the core dispatch algorithm depends on it.
type Stats struct {
	Nodes      int64
	Listeners  int64
	CacheHits  int64
	Rebuilds   int64
	Exceptions int64
}

// stats holds the live atomic counters behind Tree.Stats.
type stats struct {
	nodes      atomic.Int64
	listeners  atomic.Int64
	cacheHits  atomic.Int64
	rebuilds   atomic.Int64
	exceptions atomic.Int64
}

func (s *stats) snapshot() Stats {
	return Stats{
		Nodes:      s.nodes.Load(),
		Listeners:  s.listeners.Load(),
		CacheHits:  s.cacheHits.Load(),
		Rebuilds:   s.rebuilds.Load(),
		Exceptions: s.exceptions.Load(),
	}
}
