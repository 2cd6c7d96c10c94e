package render

import (
	"github.com/kingrea/acme-blogs/internal/uitree"
)

// ToggleSectionVisibility flips the hidden state of postID's comment
// section. It returns nil, changing nothing, when no such section is mounted.
func (s *Session) ToggleSectionVisibility(postID int) *uitree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggleSectionLocked(postID)
}

// ToggleButtonLabel flips postID's button between "Show Comments" and
// "Hide Comments". It returns nil when no such button is mounted.
func (s *Session) ToggleButtonLabel(postID int) *uitree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggleButtonLocked(postID)
}

// ToggleComments flips section and label together.
func (s *Session) ToggleComments(postID int) (section, button *uitree.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggleCommentsLocked(postID)
}

func (s *Session) toggleCommentsLocked(postID int) (*uitree.Node, *uitree.Node) {
	if postID <= 0 {
		return nil, nil
	}
	return s.toggleSectionLocked(postID), s.toggleButtonLocked(postID)
}

func (s *Session) toggleSectionLocked(postID int) *uitree.Node {
	e := s.entries[postID]
	if e == nil || e.section == nil {
		return nil
	}
	e.section.ToggleClass(uitree.HiddenClass)
	return e.section
}

func (s *Session) toggleButtonLocked(postID int) *uitree.Node {
	e := s.entries[postID]
	if e == nil || e.button == nil {
		return nil
	}
	e.button.Text = string(ButtonLabel(e.button.Text).Flip())
	return e.button
}
