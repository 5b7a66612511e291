package event

import "sync"

// Handler receives one notification. Delivery is synchronous on the
// emitter's goroutine; handlers must not block.
type Handler func(kind Kind, data any)

// Bus is a callback-table notification bus with synchronous, in-order,
// single-consumer-per-registration delivery. State transitions triggered by
// a notification complete before Emit returns, preserving the reactive,
// non-reentrant execution model.
type Bus struct {
	mu       sync.Mutex
	handlers map[Kind][]Handler
	depth    int
	deferred []func()
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]Handler)}
}

// On registers a handler for kind.
func (b *Bus) On(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Emit delivers data to every handler registered for kind, in registration
// order. When the outermost emission unwinds, deferred functions run in the
// order they were queued.
func (b *Bus) Emit(kind Kind, data any) {
	b.mu.Lock()
	hs := make([]Handler, len(b.handlers[kind]))
	copy(hs, b.handlers[kind])
	b.depth++
	b.mu.Unlock()

	for _, h := range hs {
		h(kind, data)
	}

	b.mu.Lock()
	b.depth--
	var run []func()
	if b.depth == 0 && len(b.deferred) > 0 {
		run = b.deferred
		b.deferred = nil
	}
	b.mu.Unlock()

	for _, fn := range run {
		fn()
	}
}

// Defer schedules fn to run after the current notification finishes
// propagating. Used for reports that must not interleave with in-flight
// dispatch, such as the fatal incompatible-codecs error. Outside of a
// dispatch, fn runs immediately.
func (b *Bus) Defer(fn func()) {
	b.mu.Lock()
	if b.depth > 0 {
		b.deferred = append(b.deferred, fn)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	fn()
}
