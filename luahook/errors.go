package luahook

import "errors"

// ErrScriptClosed is returned by any Script method after Close.
var ErrScriptClosed = errors.New("luahook: script closed")

// ErrFunctionNotFound is returned when a call targets a global that either
// doesn't exist or isn't a function.
var ErrFunctionNotFound = errors.New("luahook: function not found")
