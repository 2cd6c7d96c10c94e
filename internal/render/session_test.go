package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/acme-blogs/internal/model"
	"github.com/kingrea/acme-blogs/internal/uitree"
)

func newTestOrchestrator(gw *fakeGateway, opts ...BuilderOption) *Orchestrator {
	return NewOrchestrator(NewSession(), NewBuilder(gw, opts...))
}

func TestClickTogglesSectionAndLabelTogether(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(gw)
	_, err := o.Refresh(context.Background(), gw.posts[7])
	require.NoError(t, err)
	s := o.Session()

	visible, ok := s.Visible(1)
	require.True(t, ok)
	assert.False(t, visible)

	assert.Equal(t, 1, s.Click(1))
	visible, _ = s.Visible(1)
	label, _ := s.Label(1)
	assert.True(t, visible)
	assert.Equal(t, LabelHideComments, label)

	assert.Equal(t, 1, s.Click(1))
	visible, _ = s.Visible(1)
	label, _ = s.Label(1)
	assert.False(t, visible)
	assert.Equal(t, LabelShowComments, label)
}

func TestVisibilityAndLabelStayInLockStep(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(gw)
	_, err := o.Refresh(context.Background(), gw.posts[8])
	require.NoError(t, err)
	s := o.Session()

	sequence := []int{10, 10, 11, 12, 10, 12, 12, 11, 10}
	for step, id := range sequence {
		s.Click(id)
		for _, pid := range s.PostIDs() {
			visible, _ := s.Visible(pid)
			label, _ := s.Label(pid)
			assert.Equal(t, visible, label == LabelHideComments, "step %d post %d", step, pid)
		}
	}
}

func TestToggleGuardsAreNoops(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(gw)
	_, err := o.Refresh(context.Background(), gw.posts[7])
	require.NoError(t, err)
	s := o.Session()

	assert.Nil(t, s.ToggleSectionVisibility(42))
	assert.Nil(t, s.ToggleButtonLabel(42))
	section, button := s.ToggleComments(0)
	assert.Nil(t, section)
	assert.Nil(t, button)
	assert.Equal(t, 0, s.Click(42))

	visible, _ := s.Visible(1)
	label, _ := s.Label(1)
	assert.False(t, visible)
	assert.Equal(t, LabelShowComments, label)
}

func TestToggleHalvesAreIndependent(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(gw)
	_, err := o.Refresh(context.Background(), gw.posts[7])
	require.NoError(t, err)
	s := o.Session()

	button := s.ToggleButtonLabel(1)
	require.NotNil(t, button)
	assert.Equal(t, string(LabelHideComments), button.Text)
	visible, _ := s.Visible(1)
	assert.False(t, visible, "label toggle alone must not touch the section")

	section := s.ToggleSectionVisibility(1)
	require.NotNil(t, section)
	assert.False(t, section.Hidden())
}

func TestDetachAttachKeepsOneBindingPerButton(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(gw)
	s := o.Session()
	ctx := context.Background()

	var previous []*uitree.Node
	for cycle := 0; cycle < 4; cycle++ {
		res, err := o.Refresh(ctx, gw.posts[8])
		require.NoError(t, err)
		assert.Len(t, res.Attached, 3)
		for _, old := range previous {
			assert.Equal(t, 0, old.ListenerCount(uitree.EventClick), "cycle %d", cycle)
		}
		previous = res.Attached

		s.AttachAll()
		s.AttachAll()
		for _, id := range s.PostIDs() {
			assert.Equal(t, 1, s.ListenerCount(id), "cycle %d post %d", cycle, id)
		}
	}

	detached := s.DetachAll()
	assert.Len(t, detached, 3)
	for _, id := range s.PostIDs() {
		assert.Equal(t, 0, s.ListenerCount(id))
	}
	s.AttachAll()
	for _, id := range s.PostIDs() {
		assert.Equal(t, 1, s.ListenerCount(id))
	}
}

func TestListenerLifecycleOnEmptySession(t *testing.T) {
	s := NewSession()
	attached := s.AttachAll()
	detached := s.DetachAll()
	assert.NotNil(t, attached)
	assert.Empty(t, attached)
	assert.NotNil(t, detached)
	assert.Empty(t, detached)
}

func TestRefreshNilIsNoop(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(gw)
	res, err := o.Refresh(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, uint64(0), o.Session().Generation())
	o.Session().Inspect(func(display *uitree.Node) {
		assert.Equal(t, 0, display.ChildCount())
	})
	assert.Empty(t, gw.calls)
}

func TestRefreshEmptyMountsPlaceholder(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(gw)
	_, err := o.Refresh(context.Background(), gw.posts[7])
	require.NoError(t, err)

	res, err := o.Refresh(context.Background(), gw.posts[9])
	require.NoError(t, err)
	assert.Equal(t, 0, res.PostCount)
	assert.Len(t, res.Detached, 1)
	assert.Empty(t, res.Attached)
	assert.Empty(t, o.Session().PostIDs())
	assert.Contains(t, o.Session().Outline(), PlaceholderText)
}

func TestRefreshOrderClearsOldList(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(gw)
	ctx := context.Background()
	_, err := o.Refresh(ctx, gw.posts[7])
	require.NoError(t, err)
	res, err := o.Refresh(ctx, gw.posts[8])
	require.NoError(t, err)

	require.Len(t, res.Detached, 1)
	assert.Nil(t, res.Detached[0].Parent().Parent(), "old article must be unmounted")
	assert.Len(t, res.Mounted, 3)
	assert.Equal(t, 3, res.Display.ChildCount())
	assert.Equal(t, []int{10, 11, 12}, o.Session().PostIDs())
	assert.NotContains(t, o.Session().Outline(), "Author: Ann with Acme")
}

func TestRefreshFailureKeepsLastKnownGood(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(gw)
	s := o.Session()
	ctx := context.Background()
	_, err := o.Refresh(ctx, gw.posts[7])
	require.NoError(t, err)
	before := s.Outline()

	gw.failEmployee[8] = true
	res, err := o.Refresh(ctx, gw.posts[8])
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))

	assert.Equal(t, before, s.Outline())
	assert.Equal(t, []int{1}, s.PostIDs())
	assert.Equal(t, 1, s.ListenerCount(1))
	assert.Equal(t, 1, s.Click(1))
	visible, _ := s.Visible(1)
	assert.True(t, visible)
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	gw := newFakeGateway()
	gate := make(chan struct{})
	gw.gates[7] = gate
	o := newTestOrchestrator(gw)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := o.Refresh(ctx, gw.posts[7])
		done <- err
	}()
	require.Eventually(t, func() bool { return o.Session().Generation() == 1 }, time.Second, time.Millisecond)

	res, err := o.Refresh(ctx, gw.posts[8])
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Generation)

	close(gate)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStaleRefresh)
	case <-time.After(2 * time.Second):
		t.Fatal("first refresh never finished")
	}
	assert.Equal(t, []int{10, 11, 12}, o.Session().PostIDs())
	for _, id := range o.Session().PostIDs() {
		assert.Equal(t, 1, o.Session().ListenerCount(id))
	}
}

func TestRefreshCancelledContext(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(gw)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := o.Refresh(ctx, gw.posts[8])
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, o.Session().PostIDs())
}

func TestShowPlaceholder(t *testing.T) {
	o := newTestOrchestrator(newFakeGateway())
	res := o.ShowPlaceholder()
	require.NotNil(t, res)
	assert.True(t, strings.Contains(o.Session().Outline(), PlaceholderText))
}

func TestRefreshWithRepeatedPostIDMountsOnce(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(gw)
	posts := []model.Post{gw.posts[8][0], gw.posts[8][1], gw.posts[8][0]}

	res, err := o.Refresh(context.Background(), posts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.PostCount)
	assert.Len(t, res.Mounted, 2)
	assert.Equal(t, []int{10, 11}, o.Session().PostIDs())
	for _, id := range o.Session().PostIDs() {
		assert.Equal(t, 1, o.Session().ListenerCount(id))
	}
	assert.Equal(t, 1, o.Session().Click(10))
	visible, ok := o.Session().Visible(10)
	require.True(t, ok)
	assert.True(t, visible)
}
