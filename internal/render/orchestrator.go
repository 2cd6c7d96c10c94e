package render

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/kingrea/acme-blogs/internal/model"
	"github.com/kingrea/acme-blogs/internal/uitree"
)

// ErrStaleRefresh is returned by a refresh that finished after a newer one
// had started. Its fragment is discarded.
var ErrStaleRefresh = errors.New("render: refresh superseded by a newer one")

// RefreshResult describes one completed refresh cycle.
type RefreshResult struct {
	Generation uint64
	Detached   []*uitree.Node
	Display    *uitree.Node
	Mounted    []*uitree.Node
	Attached   []*uitree.Node
	PostCount  int
}

// Orchestrator runs refresh cycles against one Session.
type Orchestrator struct {
	session *Session
	builder *Builder
	log     logrus.FieldLogger
}

// OrchestratorOption customizes Orchestrator construction.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger records refresh outcomes.
func WithOrchestratorLogger(l logrus.FieldLogger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// NewOrchestrator wires a builder to a session.
func NewOrchestrator(session *Session, builder *Builder, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		session: session,
		builder: builder,
		log:     discardLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.log = o.log.WithField("session", session.ID())
	return o
}

// Session returns the session this orchestrator mounts into.
func (o *Orchestrator) Session() *Session {
	return o.session
}

// Refresh replaces the mounted post list with posts. A nil slice is a no-op
// returning nil, nil; an empty one mounts the placeholder.
//
// The new fragment is built before anything mounted is touched, so a failed
// build leaves the previous list and its bindings in place. Mounting then
// runs detach, clear, mount, attach under the session lock, and only when no
// newer refresh has started in the meantime.
func (o *Orchestrator) Refresh(ctx context.Context, posts []model.Post) (*RefreshResult, error) {
	if posts == nil {
		return nil, nil
	}
	return o.refreshWithGeneration(ctx, o.session.beginGeneration(), posts)
}

// refreshWithGeneration is Refresh for a caller that took its generation
// token earlier, before fetching posts.
func (o *Orchestrator) refreshWithGeneration(ctx context.Context, gen uint64, posts []model.Post) (*RefreshResult, error) {
	if posts == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if o.session.Generation() != gen {
		return nil, ErrStaleRefresh
	}
	log := o.log.WithFields(logrus.Fields{"generation": gen, "posts": len(posts)})

	var frag *Fragment
	if len(posts) == 0 {
		frag = o.builder.Placeholder()
	} else {
		built, err := o.builder.BuildPosts(ctx, posts)
		if err != nil {
			log.WithError(err).Error("refresh build failed; keeping mounted list")
			return nil, err
		}
		frag = built
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, ok := o.session.mount(gen, frag)
	if !ok {
		log.Info("refresh superseded; fragment discarded")
		return nil, ErrStaleRefresh
	}
	log.WithFields(logrus.Fields{
		"detached": len(result.Detached),
		"attached": len(result.Attached),
	}).Info("refresh mounted")
	return result, nil
}

// ShowPlaceholder mounts the placeholder block, superseding any in-flight
// refresh.
func (o *Orchestrator) ShowPlaceholder() *RefreshResult {
	gen := o.session.beginGeneration()
	result, _ := o.session.mount(gen, o.builder.Placeholder())
	return result
}
