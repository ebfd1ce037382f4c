// Package dispatch runs a single event listener with panic recovery and
// timing, and turns the outcome into the four-way Outcome the tree's Handle
// cache expects (success, invalid, expired, exception).
//
// It is deliberately synchronous only: evtree's dispatch path is defined to
// take no locks and spawn no goroutines in the steady state, so there is no
// async worker-pool variant here the way a general-purpose event bus might
// offer one. A listener that needs to do slow work is expected to hand off
// to its own goroutine and return promptly.
//
// # Panic recovery
//
// Execute recovers a panicking listener, records the panic value and stack
// on Result, and reports Exception as the Outcome. A configured PanicHandler
// runs before Execute returns; if the handler itself panics, that second
// panic is recovered and discarded rather than escaping Execute.
//
// # Usage
//
//	exec := dispatch.NewExecutor()
//	result := exec.Execute(ctx, event, dispatch.ListenerFunc(func(ctx context.Context, event any) dispatch.Outcome {
//	    return dispatch.Success
//	}))
//	if result.Outcome == dispatch.Exception {
//	    // result.Panicked, result.PanicValue, result.PanicStack are set
//	    // when the exception came from a recovered panic rather than a
//	    // listener returning Exception directly.
//	}
//
// With a panic handler:
//
//	exec := dispatch.NewExecutor(
//	    dispatch.WithPanicHandler(func(event any, panicValue any, stack []byte) {
//	        log.Printf("listener panic: %v\n%s", panicValue, stack)
//	    }),
//	)
package dispatch
