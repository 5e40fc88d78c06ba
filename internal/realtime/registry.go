package realtime

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Handler receives events for a topic. Handlers run on the dispatching
// goroutine and should return quickly.
type Handler func(Event)

// Token identifies one registration in a Registry.
type Token struct {
	id uuid.UUID
}

// String returns the token id.
func (t Token) String() string { return t.id.String() }

// IsZero reports whether t was never issued.
func (t Token) IsZero() bool { return t.id == uuid.Nil }

type registration struct {
	token   Token
	handler Handler
}

// Registry maps topics to their registered handlers. Every handler on a
// topic receives every event dispatched to it.
type Registry struct {
	mu     sync.RWMutex
	topics map[string][]registration
	owner  map[Token]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		topics: make(map[string][]registration),
		owner:  make(map[Token]string),
	}
}

// Add registers h for topic and returns its token.
func (r *Registry) Add(topic string, h Handler) Token {
	tok := Token{id: uuid.New()}
	r.mu.Lock()
	r.topics[topic] = append(r.topics[topic], registration{token: tok, handler: h})
	r.owner[tok] = topic
	r.mu.Unlock()
	return tok
}

// Remove drops the registration for tok. It returns false if tok was
// already removed or never issued.
func (r *Registry) Remove(tok Token) bool {
	_, _, ok := r.remove(tok)
	return ok
}

// remove reports the token's topic and how many registrations remain on it.
func (r *Registry) remove(tok Token) (topic string, remaining int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	topic, ok = r.owner[tok]
	if !ok {
		return "", 0, false
	}
	delete(r.owner, tok)

	regs := r.topics[topic]
	for i, reg := range regs {
		if reg.token == tok {
			regs = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(regs) == 0 {
		delete(r.topics, topic)
	} else {
		r.topics[topic] = regs
	}
	return topic, len(regs), true
}

// Dispatch calls every handler registered for e.Topic, in registration
// order, and returns how many were called.
func (r *Registry) Dispatch(e Event) int {
	r.mu.RLock()
	regs := append([]registration(nil), r.topics[e.Topic]...)
	r.mu.RUnlock()

	for _, reg := range regs {
		reg.handler(e)
	}
	return len(regs)
}

// Count returns the number of registrations for topic.
func (r *Registry) Count(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics[topic])
}

// Topics returns every topic with at least one registration, sorted.
func (r *Registry) Topics() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.topics))
	for t := range r.topics {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Len returns the total number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owner)
}
