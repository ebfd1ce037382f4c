package evtree

import "github.com/dshills/evtree/dispatch"

// TreeOption configures a Tree at construction.
type TreeOption func(*treeConfig)

type treeConfig struct {
	reporter     ExceptionReporter
	panicHandler dispatch.PanicHandler
}

func defaultTreeConfig() treeConfig {
	return treeConfig{
		reporter: DiscardExceptions,
	}
}

// WithExceptionReporter sets the sink for listener exceptions (returned
// ResultException or a recovered panic). The default discards them.
func WithExceptionReporter(r ExceptionReporter) TreeOption {
	return func(c *treeConfig) {
		if r != nil {
			c.reporter = r
		}
	}
}

// WithPanicHandler sets a low-level hook invoked with the raw panic value
// and stack trace whenever a listener panics, in addition to the
// ExceptionReporter (which receives a wrapped *ListenerPanicError). Use
// this for stack-trace logging; use WithExceptionReporter for the
// user-facing report.
func WithPanicHandler(h dispatch.PanicHandler) TreeOption {
	return func(c *treeConfig) {
		if h != nil {
			c.panicHandler = h
		}
	}
}
