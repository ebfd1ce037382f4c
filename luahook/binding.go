package luahook

import (
	"context"

	"github.com/dshills/evtree"
	"github.com/dshills/evtree/evclass"
)

// Binding adapts a script to evtree.EventBinding, mapping each of several
// event types to its own Lua function name on the same Script.
type Binding struct {
	Script *Script
	Fns    map[evclass.ID]string
	Encode Encoder
	Decode Decoder
}

// NewBinding builds a Binding from a script and a type-to-function-name
// table.
func NewBinding(script *Script, fns map[evclass.ID]string, encode Encoder) *Binding {
	return &Binding{Script: script, Fns: fns, Encode: encode}
}

// EventTypes implements evtree.EventBinding.
func (b *Binding) EventTypes() []evclass.ID {
	types := make([]evclass.ID, 0, len(b.Fns))
	for t := range b.Fns {
		types = append(types, t)
	}
	return types
}

// Consumer implements evtree.EventBinding. It returns a new closure on each
// call; evtree tracks binding consumers by the binding's own identity, so
// the closures need not be the same value.
func (b *Binding) Consumer(eventType evclass.ID) func(ctx context.Context, event any) {
	fnName, ok := b.Fns[eventType]
	if !ok {
		return func(context.Context, any) {}
	}

	decode := b.Decode
	if decode == nil {
		decode = defaultDecoder
	}

	return func(ctx context.Context, event any) {
		var args []any
		if b.Encode != nil {
			args = b.Encode(event)
		} else {
			args = []any{event}
		}
		results, err := b.Script.Call(fnName, args...)
		if err != nil {
			return
		}
		// A binding consumer has no Result to report back to the tree;
		// Decode exists so callers can still route the outcome (e.g. to
		// their own logging) without evtree seeing it.
		_ = decode(results)
	}
}

var _ evtree.EventBinding = (*Binding)(nil)
