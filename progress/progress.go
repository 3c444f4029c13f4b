package progress

// Tracker receives progress events from long-running image operations.
// Implementations must be safe for concurrent use.
type Tracker interface {
	OnEvent(any)
}

// NewTracker adapts a typed callback into a Tracker. Events of any other
// type are dropped, so one tracker can be handed to code that emits
// several event kinds.
func NewTracker[E any](fn func(E)) Tracker {
	return funcTracker(func(v any) {
		if e, ok := v.(E); ok {
			fn(e)
		}
	})
}

type funcTracker func(any)

func (f funcTracker) OnEvent(e any) { f(e) }

// Nop is a no-op tracker for callers that don't need progress.
var Nop Tracker = funcTracker(func(any) {})
