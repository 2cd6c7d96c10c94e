package render

import (
	"context"
	"strconv"
	"strings"

	"github.com/kingrea/acme-blogs/internal/gateway"
	"github.com/kingrea/acme-blogs/internal/model"
)

// DefaultEmployeeID is selected when a selection event carries no usable id.
const DefaultEmployeeID = 1

// SelectionEvent is an employee-menu change. Value is the chosen option's
// value, usually a numeric id.
type SelectionEvent struct {
	Value string
}

// SelectionResult reports what one selection change did.
type SelectionResult struct {
	UserID  int
	Posts   []model.Post
	Refresh *RefreshResult
}

// Selector reacts to employee selection changes.
type Selector struct {
	gw        gateway.Gateway
	orch      *Orchestrator
	defaultID int
}

// NewSelector returns a selector falling back to defaultID (DefaultEmployeeID
// when not positive).
func NewSelector(gw gateway.Gateway, orch *Orchestrator, defaultID int) *Selector {
	if defaultID <= 0 {
		defaultID = DefaultEmployeeID
	}
	return &Selector{gw: gw, orch: orch, defaultID: defaultID}
}

// ResolveUserID parses value, falling back when it is empty, non-numeric or
// not positive.
func ResolveUserID(value string, fallback int) int {
	id, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return fallback
	}
	return id
}

// OnSelectionChange fetches the chosen employee's posts and refreshes the
// display. A nil event is a no-op. Fetch and refresh errors propagate with
// the partial result filled in as far as it got.
//
// The generation token is taken before the posts fetch, so a selection
// overtaken by a newer selection or refresh returns ErrStaleRefresh and
// mounts nothing.
func (s *Selector) OnSelectionChange(ctx context.Context, evt *SelectionEvent) (*SelectionResult, error) {
	if evt == nil {
		return nil, nil
	}
	result := &SelectionResult{UserID: ResolveUserID(evt.Value, s.defaultID)}
	session := s.orch.Session()
	gen := session.beginGeneration()
	posts, err := s.gw.FetchPostsForEmployee(ctx, result.UserID)
	if err != nil {
		return result, err
	}
	result.Posts = posts
	if session.Generation() != gen {
		return result, ErrStaleRefresh
	}
	refresh, err := s.orch.refreshWithGeneration(ctx, gen, posts)
	if err != nil {
		return result, err
	}
	result.Refresh = refresh
	return result, nil
}
