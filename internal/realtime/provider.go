// Package realtime is the WebSocket side of live updates: a validated event
// model, a topic registry and providers that feed it.
package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// ConnState is the provider's connection state.
type ConnState string

// Connection states
const (
	Connected    ConnState = "connected"
	Connecting   ConnState = "connecting"
	Disconnected ConnState = "disconnected"
)

// Provider delivers realtime events by topic.
type Provider interface {
	// Subscribe registers h for topic. Subscribing while disconnected is
	// allowed; the topic is activated once a connection is up.
	Subscribe(topic string, h Handler) *Subscription
	State() ConnState
	// OnStateChange calls fn on every state transition.
	OnStateChange(fn func(ConnState)) *Subscription
}

// Subscription is returned by Provider methods. Unsubscribe is idempotent
// and safe for concurrent use.
type Subscription struct {
	once sync.Once
	fn   func()
}

func newSubscription(fn func()) *Subscription {
	return &Subscription{fn: fn}
}

// Unsubscribe tears down the subscription. Later calls do nothing.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.fn != nil {
			s.fn()
		}
	})
}

// stateNotifier holds a ConnState and fans transitions out to listeners.
type stateNotifier struct {
	mu        sync.Mutex
	state     ConnState
	order     []uuid.UUID
	listeners map[uuid.UUID]func(ConnState)
}

func newStateNotifier(initial ConnState) *stateNotifier {
	return &stateNotifier{state: initial, listeners: make(map[uuid.UUID]func(ConnState))}
}

func (n *stateNotifier) get() ConnState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// set updates the state and notifies listeners if it changed.
func (n *stateNotifier) set(s ConnState) bool {
	n.mu.Lock()
	if n.state == s {
		n.mu.Unlock()
		return false
	}
	n.state = s
	fns := make([]func(ConnState), 0, len(n.order))
	for _, id := range n.order {
		fns = append(fns, n.listeners[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
	return true
}

func (n *stateNotifier) listen(fn func(ConnState)) *Subscription {
	id := uuid.New()
	n.mu.Lock()
	n.listeners[id] = fn
	n.order = append(n.order, id)
	n.mu.Unlock()

	return newSubscription(func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
		for i, o := range n.order {
			if o == id {
				n.order = append(n.order[:i:i], n.order[i+1:]...)
				break
			}
		}
	})
}
