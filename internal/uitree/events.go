package uitree

// EventClick is the only event type the renderer dispatches today.
const EventClick = "click"

// Event is delivered to handlers on Dispatch.
type Event struct {
	Type   string
	Target *Node
}

// Handler reacts to an event on the node it was subscribed to.
type Handler func(Event)

// Subscription binds one handler to one node and event type until Cancel.
type Subscription struct {
	node    *Node
	event   string
	handler Handler
	active  bool
}

// Subscribe registers handler for event on n. Every call creates a new
// binding; deduplication is the caller's job.
func (n *Node) Subscribe(event string, handler Handler) *Subscription {
	sub := &Subscription{node: n, event: event, handler: handler}
	if n == nil || handler == nil {
		return sub
	}
	if n.listeners == nil {
		n.listeners = map[string][]*Subscription{}
	}
	sub.active = true
	n.listeners[event] = append(n.listeners[event], sub)
	return sub
}

// Cancel removes the binding. It reports whether the binding was still
// active; cancelling twice is harmless.
func (s *Subscription) Cancel() bool {
	if s == nil || !s.active {
		return false
	}
	s.active = false
	subs := s.node.listeners[s.event]
	for i, candidate := range subs {
		if candidate == s {
			s.node.listeners[s.event] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(s.node.listeners[s.event]) == 0 {
		delete(s.node.listeners, s.event)
	}
	return true
}

// Active reports whether the binding has not been cancelled.
func (s *Subscription) Active() bool {
	return s != nil && s.active
}

// Node returns the node the subscription is bound to.
func (s *Subscription) Node() *Node {
	if s == nil {
		return nil
	}
	return s.node
}

// ListenerCount returns the number of live bindings for event on n.
func (n *Node) ListenerCount(event string) int {
	if n == nil || n.listeners == nil {
		return 0
	}
	return len(n.listeners[event])
}

// Dispatch delivers event to every handler bound on n and returns how many
// ran. Handlers may cancel subscriptions while running.
func (n *Node) Dispatch(event string) int {
	if n == nil || n.listeners == nil {
		return 0
	}
	subs := append([]*Subscription(nil), n.listeners[event]...)
	ran := 0
	for _, sub := range subs {
		if !sub.active {
			continue
		}
		sub.handler(Event{Type: event, Target: n})
		ran++
	}
	return ran
}
