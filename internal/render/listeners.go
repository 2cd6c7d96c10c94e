package render

import (
	"github.com/kingrea/acme-blogs/internal/uitree"
)

// AttachAll binds one click handler per rendered toggle button. Each handler
// captures its post id when bound. Buttons that already hold a live binding
// are left alone, so repeated calls never stack handlers.
func (s *Session) AttachAll() []*uitree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachAllLocked()
}

// DetachAll cancels the click binding of every rendered toggle button.
func (s *Session) DetachAll() []*uitree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detachAllLocked()
}

func (s *Session) attachAllLocked() []*uitree.Node {
	buttons := s.buttonsLocked()
	for _, id := range s.order {
		e := s.entries[id]
		if e == nil || e.button == nil {
			continue
		}
		if sub := s.bindings[id]; sub.Active() {
			continue
		}
		postID := id
		s.bindings[id] = e.button.Subscribe(uitree.EventClick, func(evt uitree.Event) {
			s.toggleCommentsLocked(postID)
		})
	}
	return buttons
}

func (s *Session) detachAllLocked() []*uitree.Node {
	buttons := s.buttonsLocked()
	for id, sub := range s.bindings {
		sub.Cancel()
		delete(s.bindings, id)
	}
	return buttons
}

func (s *Session) buttonsLocked() []*uitree.Node {
	buttons := make([]*uitree.Node, 0, len(s.order))
	for _, id := range s.order {
		if e := s.entries[id]; e != nil && e.button != nil {
			buttons = append(buttons, e.button)
		}
	}
	return buttons
}
