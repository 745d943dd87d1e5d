// Package events implements the subscription registry behind the host
// integration layer. Every registration returns a handle that the subscriber
// owns and releases, so teardown never depends on handler identity.
package events

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

// Handler handles a host event.
type Handler func(ctx context.Context, evt types.HostEvent)

// Subscription is a registered handler. Unsubscribe is idempotent.
type Subscription struct {
	id       id.SubscriptionID
	event    string
	once     bool
	handler  Handler
	emitter  *Emitter
	released atomic.Bool
}

// ID returns the subscription identifier
func (s *Subscription) ID() string { return s.id.String() }

// Event returns the subscribed event name
func (s *Subscription) Event() string { return s.event }

// Once reports whether the handler fires at most once
func (s *Subscription) Once() bool { return s.once }

// Active reports whether the handler can still fire
func (s *Subscription) Active() bool { return !s.released.Load() }

// Unsubscribe detaches the handler. Safe to call more than once and after a
// once handler already fired.
func (s *Subscription) Unsubscribe() {
	if s.released.CompareAndSwap(false, true) {
		s.emitter.remove(s)
	}
}

// Emitter dispatches events to subscribers synchronously, in registration order.
type Emitter struct {
	mu   sync.RWMutex
	subs map[string][]*Subscription
}

// NewEmitter creates an empty emitter
func NewEmitter() *Emitter {
	return &Emitter{subs: make(map[string][]*Subscription)}
}

// On registers a handler for every occurrence of event
func (e *Emitter) On(event string, handler Handler) *Subscription {
	return e.add(event, handler, false)
}

// Once registers a handler that fires at most once
func (e *Emitter) Once(event string, handler Handler) *Subscription {
	return e.add(event, handler, true)
}

func (e *Emitter) add(event string, handler Handler, once bool) *Subscription {
	sub := &Subscription{
		id:      id.NewSubscriptionID(),
		event:   event,
		once:    once,
		handler: handler,
		emitter: e,
	}

	e.mu.Lock()
	e.subs[event] = append(e.subs[event], sub)
	e.mu.Unlock()

	return sub
}

func (e *Emitter) remove(sub *Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.subs[sub.event]
	for i, s := range list {
		if s == sub {
			// Copy so snapshots held by in-flight emissions stay intact
			next := make([]*Subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(e.subs, sub.event)
			} else {
				e.subs[sub.event] = next
			}
			return
		}
	}
}

// Emit delivers evt to the handlers subscribed to evt.Name and returns the
// number of handlers invoked.
func (e *Emitter) Emit(ctx context.Context, evt types.HostEvent) int {
	e.mu.RLock()
	snapshot := e.subs[evt.Name]
	e.mu.RUnlock()

	delivered := 0
	for _, sub := range snapshot {
		if sub.once {
			// Claim the handler before running it so it fires at most once
			if !sub.released.CompareAndSwap(false, true) {
				continue
			}
			e.remove(sub)
		} else if sub.released.Load() {
			continue
		}
		sub.handler(ctx, evt)
		delivered++
	}
	return delivered
}

// Count returns the number of active subscriptions for event
func (e *Emitter) Count(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs[event])
}
