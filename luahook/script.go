package luahook

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Script is a sandboxed Lua state that exposes named global functions as
// callables. It is safe for concurrent use; calls are serialized because
// gopher-lua's LState is not goroutine-safe.
type Script struct {
	mu     sync.Mutex
	L      *lua.LState
	closed bool
}

// ScriptOption configures a Script at construction.
type ScriptOption func(*lua.LState)

// NewScript compiles and runs source in a fresh sandboxed state, leaving
// whatever globals source defines available for later Call invocations.
func NewScript(source string, opts ...ScriptOption) (*Script, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	installSandbox(L)

	for _, opt := range opts {
		opt(L)
	}

	s := &Script{L: L}
	if err := s.doWithRecovery(func() error {
		return L.DoString(source)
	}); err != nil {
		L.Close()
		return nil, err
	}
	return s, nil
}

// openSafeLibraries opens the subset of the Lua standard library that
// carries no host-filesystem or process capability.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	// io, os, debug, and package are never opened: they would let a script
	// touch the filesystem, spawn processes, or bypass the sandbox.
}

// installSandbox strips the globals that could load code or files from
// outside the script's own source string.
func installSandbox(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Call invokes the global Lua function named fn with args converted via
// ToLuaValue, and returns its results converted via ToGoValue.
func (s *Script) Call(fn string, args ...any) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrScriptClosed
	}

	fnVal := s.L.GetGlobal(fn)
	if fnVal.Type() != lua.LTFunction {
		return nil, ErrFunctionNotFound
	}

	stackTop := s.L.GetTop()
	s.L.Push(fnVal)
	for _, a := range args {
		s.L.Push(ToLuaValue(a))
	}

	var callErr error
	if err := s.doWithRecovery(func() error {
		callErr = s.L.PCall(len(args), lua.MultRet, nil)
		return nil
	}); err != nil {
		return nil, err
	}
	if callErr != nil {
		return nil, callErr
	}

	n := s.L.GetTop() - stackTop
	if n <= 0 {
		return nil, nil
	}
	results := make([]any, n)
	for i := 0; i < n; i++ {
		results[i] = ToGoValue(s.L.Get(stackTop + i + 1))
	}
	s.L.Pop(n)
	return results, nil
}

// doWithRecovery runs fn, converting any panic escaping the Lua runtime
// into an error instead of crashing the caller's goroutine.
func (s *Script) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("luahook: lua panic: %v", r)
		}
	}()
	return fn()
}

// Close releases the underlying Lua state. Further calls return
// ErrScriptClosed.
func (s *Script) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
