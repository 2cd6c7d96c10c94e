// Package render builds the employee → posts → comments display and keeps
// its mutable state (mounted tree, click bindings, comment visibility) in an
// explicit Session.
package render

import (
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/kingrea/acme-blogs/internal/uitree"
)

// ButtonLabel is the two-valued label of a comment toggle button.
type ButtonLabel string

const (
	LabelShowComments ButtonLabel = "Show Comments"
	LabelHideComments ButtonLabel = "Hide Comments"
)

// Flip returns the other label.
func (l ButtonLabel) Flip() ButtonLabel {
	if l == LabelShowComments {
		return LabelHideComments
	}
	return LabelShowComments
}

const (
	// DataPostID tags buttons and comment sections with their post id.
	DataPostID = "post-id"
	// ClassComments marks comment sections.
	ClassComments = "comments"
	// ClassDefaultText marks the placeholder paragraph.
	ClassDefaultText = "default-text"
	// PlaceholderText is shown when no posts are mounted.
	PlaceholderText = "Select an Employee to display their posts."
)

type entry struct {
	postID  int
	article *uitree.Node
	button  *uitree.Node
	section *uitree.Node
}

// Session owns the display area and everything derived from the currently
// mounted post list. All methods are safe for concurrent use. Click handlers
// run with the session lock held and must not call back into exported
// Session methods.
type Session struct {
	id string

	mu         sync.Mutex
	display    *uitree.Node
	entries    map[int]*entry
	order      []int
	bindings   map[int]*uitree.Subscription
	generation uint64
}

// NewSession returns a session with an empty "main" display area.
func NewSession() *Session {
	return &Session{
		id:       uuid.NewString(),
		display:  uitree.MakeNode("main", "", ""),
		entries:  map[int]*entry{},
		bindings: map[int]*uitree.Subscription{},
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// Inspect runs fn with the display area while holding the session lock.
// fn must not retain the node or call other Session methods.
func (s *Session) Inspect(fn func(display *uitree.Node)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.display)
}

// Outline renders the display area as plain text.
func (s *Session) Outline() string {
	var out string
	s.Inspect(func(display *uitree.Node) {
		out = uitree.Outline(display)
	})
	return out
}

// PostIDs lists the mounted posts in render order.
func (s *Session) PostIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.order...)
}

// Visible reports whether postID's comment section is shown. ok is false
// when no such post is mounted.
func (s *Session) Visible(postID int) (visible, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[postID]
	if e == nil || e.section == nil {
		return false, false
	}
	return !e.section.Hidden(), true
}

// Label returns the current label of postID's toggle button.
func (s *Session) Label(postID int) (ButtonLabel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[postID]
	if e == nil || e.button == nil {
		return "", false
	}
	return ButtonLabel(e.button.Text), true
}

// ListenerCount returns the click listeners bound on postID's button.
func (s *Session) ListenerCount(postID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[postID]
	if e == nil {
		return 0
	}
	return e.button.ListenerCount(uitree.EventClick)
}

// Click dispatches a click on postID's toggle button and returns how many
// handlers ran. Unknown posts are ignored.
func (s *Session) Click(postID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[postID]
	if e == nil || e.button == nil {
		return 0
	}
	return e.button.Dispatch(uitree.EventClick)
}

func (s *Session) beginGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// Generation returns the token of the most recently started refresh.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// mount swaps the display area's content for frag when gen is still the
// newest generation: detach, clear, mount, attach.
func (s *Session) mount(gen uint64, frag *Fragment) (*RefreshResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, false
	}
	detached := s.detachAllLocked()
	s.display.RemoveChildren()

	mounted := frag.Root.Children()
	s.display.AppendChild(frag.Root)
	s.entries = make(map[int]*entry, len(frag.Entries))
	s.order = s.order[:0]
	for _, fe := range frag.Entries {
		s.entries[fe.PostID] = &entry{
			postID:  fe.PostID,
			article: fe.Article,
			button:  fe.Button,
			section: fe.Section,
		}
		s.order = append(s.order, fe.PostID)
	}
	attached := s.attachAllLocked()
	return &RefreshResult{
		Generation: gen,
		Detached:   detached,
		Display:    s.display,
		Mounted:    mounted,
		Attached:   attached,
		PostCount:  len(frag.Entries),
	}, true
}

func postIDString(id int) string {
	return strconv.Itoa(id)
}
