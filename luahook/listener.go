package luahook

import (
	"context"

	"github.com/dshills/evtree"
	"github.com/dshills/evtree/evclass"
)

// Encoder converts a host event into the arguments passed to a Lua
// function call.
type Encoder func(event any) []any

// Decoder converts a Lua function's return values into a ListenerResult.
// The default decoder (used when Decode is nil) expects the first return
// value to be one of "success", "invalid", "expired", "exception", falling
// back to ResultSuccess for anything else including no return value.
type Decoder func(results []any) evtree.ListenerResult

func defaultDecoder(results []any) evtree.ListenerResult {
	if len(results) == 0 {
		return evtree.ResultSuccess
	}
	s, ok := results[0].(string)
	if !ok {
		return evtree.ResultSuccess
	}
	switch s {
	case "invalid":
		return evtree.ResultInvalid
	case "expired":
		return evtree.ResultExpired
	case "exception":
		return evtree.ResultException
	default:
		return evtree.ResultSuccess
	}
}

// Listener adapts one Lua global function into an evtree.EventListener.
//
// Like evtree.ListenerFunc, its methods take a pointer receiver: register
// and remove the same *Listener so identity comparison on removal stays a
// plain pointer comparison.
type Listener struct {
	Type   evclass.ID
	Script *Script
	FnName string
	Encode Encoder
	Decode Decoder
}

// NewListener builds a Listener for the given script and function name.
// encode may be nil, in which case the event value itself is passed as the
// sole Lua argument via ToLuaValue's default conversion for its dynamic
// type (which will be lua.LNil unless it is a bool, int, int32, int64,
// float32, float64, string, []any, or map[string]any).
func NewListener(eventType evclass.ID, script *Script, fnName string, encode Encoder) *Listener {
	return &Listener{Type: eventType, Script: script, FnName: fnName, Encode: encode}
}

// EventType implements evtree.EventListener.
func (l *Listener) EventType() evclass.ID { return l.Type }

// Run implements evtree.EventListener. A script error (a Lua runtime
// error or a missing/non-function global) is reported as ResultException;
// the underlying error is discarded because EventListener.Run has no error
// return, matching evtree's contract that listener failures never escape
// as Go errors.
func (l *Listener) Run(ctx context.Context, event any) evtree.ListenerResult {
	var args []any
	if l.Encode != nil {
		args = l.Encode(event)
	} else {
		args = []any{event}
	}

	results, err := l.Script.Call(l.FnName, args...)
	if err != nil {
		return evtree.ResultException
	}

	decode := l.Decode
	if decode == nil {
		decode = defaultDecoder
	}
	return decode(results)
}

var _ evtree.EventListener = (*Listener)(nil)
