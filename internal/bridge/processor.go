package bridge

import (
	"context"
	"fmt"

	"github.com/kingrea/acme-blogs/internal/render"
)

// Applied describes an event after it changed the session. UserID is the
// resolved employee for select events.
type Applied struct {
	Event  Event
	UserID int
}

// SessionProcessor applies bridge events to a render session: select events
// run a selection change, toggle events click the post's button.
type SessionProcessor struct {
	selector *render.Selector
	session  *render.Session
	after    func(Applied)
}

// NewSessionProcessor wires events to selector and session. after, when set,
// runs once an event has been applied (the TUI uses it to repaint).
func NewSessionProcessor(selector *render.Selector, session *render.Session, after func(Applied)) *SessionProcessor {
	return &SessionProcessor{selector: selector, session: session, after: after}
}

// HandleEvent applies evt.
func (p *SessionProcessor) HandleEvent(ctx context.Context, evt Event) error {
	applied := Applied{Event: evt}
	switch evt.Type {
	case TypeSelect:
		if p.selector == nil {
			return fmt.Errorf("bridge: no selector attached")
		}
		result, err := p.selector.OnSelectionChange(ctx, &render.SelectionEvent{Value: evt.Value})
		if err != nil {
			return fmt.Errorf("bridge: select %q: %w", evt.Value, err)
		}
		applied.UserID = result.UserID
	case TypeToggle:
		if p.session == nil {
			return fmt.Errorf("bridge: no session attached")
		}
		if p.session.Click(evt.PostID) == 0 {
			return fmt.Errorf("bridge: post %d is not rendered", evt.PostID)
		}
	default:
		return fmt.Errorf("bridge: unsupported event type %q", evt.Type)
	}
	if p.after != nil {
		p.after(applied)
	}
	return nil
}
