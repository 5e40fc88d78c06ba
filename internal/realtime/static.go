package realtime

// Static is an in-process provider with a settable connection state. It
// backs --offline mode and tests.
type Static struct {
	reg   *Registry
	state *stateNotifier
}

// NewStatic returns a provider reporting initial.
func NewStatic(initial ConnState) *Static {
	return &Static{reg: NewRegistry(), state: newStateNotifier(initial)}
}

// Subscribe registers h for topic.
func (s *Static) Subscribe(topic string, h Handler) *Subscription {
	tok := s.reg.Add(topic, h)
	return newSubscription(func() { s.reg.Remove(tok) })
}

// State returns the current state.
func (s *Static) State() ConnState { return s.state.get() }

// OnStateChange calls fn on every transition.
func (s *Static) OnStateChange(fn func(ConnState)) *Subscription {
	return s.state.listen(fn)
}

// SetState changes the reported state, notifying listeners.
func (s *Static) SetState(st ConnState) { s.state.set(st) }

// Publish delivers e to the topic's subscribers and returns how many
// received it.
func (s *Static) Publish(e Event) int { return s.reg.Dispatch(e) }

// Subscribers returns the number of subscribers on topic.
func (s *Static) Subscribers(topic string) int { return s.reg.Count(topic) }
