package evtree

import (
	"context"

	"github.com/dshills/evtree/dispatch"
	"github.com/dshills/evtree/evclass"
)

// ListenerResult is the outcome an EventListener reports for one call.
// It is a type alias for dispatch.Outcome so tree code and the dispatch
// executor speak the same vocabulary without an import cycle.
type ListenerResult = dispatch.Outcome

// The four outcomes an EventListener may report.
const (
	ResultSuccess   = dispatch.Success
	ResultInvalid   = dispatch.Invalid
	ResultExpired   = dispatch.Expired
	ResultException = dispatch.Exception
)

// EventListener is a direct subscriber on a Node for one event class.
type EventListener interface {
	// EventType is the class this listener is registered for. The tree uses
	// it to remove the listener after it reports ResultExpired.
	EventType() evclass.ID

	// Run processes event and reports what happened. A panic inside Run is
	// recovered by the dispatch executor and treated as ResultException.
	Run(ctx context.Context, event any) ListenerResult
}

// ListenerFunc adapts a function plus a fixed event type to EventListener.
//
// EventListener values are compared by identity on removal (Node.RemoveListener),
// and Go panics comparing two interface values of a non-comparable dynamic
// type (a struct holding a func field, as this one does). ListenerFunc's
// methods therefore take a pointer receiver: register and remove the same
// *ListenerFunc, and identity comparison is a plain, panic-free pointer
// comparison.
type ListenerFunc struct {
	Type evclass.ID
	Fn   func(ctx context.Context, event any) ListenerResult
}

// EventType implements EventListener.
func (f *ListenerFunc) EventType() evclass.ID { return f.Type }

// Run implements EventListener.
func (f *ListenerFunc) Run(ctx context.Context, event any) ListenerResult {
	return f.Fn(ctx, event)
}

// Filter extracts a routing key from events of a node's base type. Filters
// serve two purposes: a node's own Filter feeds its Predicate at dispatch
// time, and a mapped child's Filter is what a router closure uses to decide
// whether an incoming event belongs to that child.
type Filter interface {
	// TargetType is the greatest event class this filter (and therefore the
	// node it belongs to) will ever be asked to extract a key from.
	TargetType() evclass.ID

	// ExtractKey pulls the routing key out of event. Its return value is
	// compared with == against mapped-child keys and passed to Predicate,
	// so it must be a comparable value.
	ExtractKey(event any) any
}

// FilterFunc adapts a function plus a fixed target type to Filter.
type FilterFunc struct {
	Type    evclass.ID
	Extract func(event any) any
}

// TargetType implements Filter.
func (f FilterFunc) TargetType() evclass.ID { return f.Type }

// ExtractKey implements Filter.
func (f FilterFunc) ExtractKey(event any) any { return f.Extract(event) }

// Predicate gates whether a listener runs for a given (event, key) pair.
// A nil Predicate always allows the listener to run.
type Predicate func(event any, key any) bool

// EventBinding is a bulk registration: it names every event type it covers
// and, for each, produces a consumer closure. Register/Unregister add or
// remove those closures from the matching ListenerEntry's binding consumer
// set. Consumers are tracked by the binding's own identity, not the
// closure's, so a binding installs at most one consumer per event class and
// Unregister removes everything a given binding added regardless of what
// Consumer returns on each call.
type EventBinding interface {
	EventTypes() []evclass.ID
	Consumer(eventType evclass.ID) func(ctx context.Context, event any)
}

// ExceptionReporter is consulted whenever a listener reports
// ResultException or panics. It is never called for any other outcome.
type ExceptionReporter interface {
	HandleException(ctx context.Context, event any, err error)
}

// ExceptionReporterFunc adapts a function to ExceptionReporter.
type ExceptionReporterFunc func(ctx context.Context, event any, err error)

// HandleException implements ExceptionReporter.
func (f ExceptionReporterFunc) HandleException(ctx context.Context, event any, err error) {
	f(ctx, event, err)
}

// DiscardExceptions is an ExceptionReporter that does nothing. It is the
// default so a Tree is usable without configuration, dropping reports
// rather than requiring one to be wired up.
var DiscardExceptions ExceptionReporter = ExceptionReporterFunc(func(context.Context, any, error) {})
