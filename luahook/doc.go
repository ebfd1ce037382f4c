// Package luahook adapts sandboxed Lua scripts into evtree.EventListener and
// evtree.EventBinding values, so a host can let end users or plugin authors
// attach dispatch-tree behavior without a Go rebuild.
//
// Each Script owns its own gopher-lua state; states are not goroutine-safe,
// so a Script serializes calls into it with an internal mutex the same way
// evtree.Node serializes structural edits with its Tree's lock. A Script
// registered as a listener maps a single global Lua function to
// EventListener.Run; a Script registered as a binding maps one function per
// event type to EventBinding.Consumer.
//
// # Usage
//
//	script, _ := luahook.NewScript(`
//	    function onDamage(id, amount)
//	        return amount > 100 and "expired" or "success"
//	    end
//	`)
//	listener := luahook.NewListener(damageEventType, script, "onDamage", encodeDamage)
//	node.AddListener(damageEventType, listener)
package luahook
