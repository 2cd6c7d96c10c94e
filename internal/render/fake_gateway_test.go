package render

import (
	"context"
	"errors"
	"sync"

	"github.com/kingrea/acme-blogs/internal/gateway"
	"github.com/kingrea/acme-blogs/internal/model"
)

var errBoom = errors.New("boom")

type fakeGateway struct {
	mu        sync.Mutex
	employees map[int]model.Employee
	posts     map[int][]model.Post
	comments  map[int][]model.Comment

	failEmployee map[int]bool
	failComments map[int]bool
	failPosts    map[int]bool
	// gates blocks FetchEmployee for a user id until the channel is closed.
	gates map[int]chan struct{}
	// postGates blocks FetchPostsForEmployee the same way.
	postGates map[int]chan struct{}

	calls []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		employees: map[int]model.Employee{
			7: {ID: 7, Name: "Ann", Company: model.Company{Name: "Acme", CatchPhrase: "We make stuff"}},
			8: {ID: 8, Name: "Ben", Company: model.Company{Name: "Globex", CatchPhrase: "Ever onward"}},
		},
		posts: map[int][]model.Post{
			7: {{ID: 1, UserID: 7, Title: "T", Body: "B"}},
			8: {
				{ID: 10, UserID: 8, Title: "first", Body: "one"},
				{ID: 11, UserID: 8, Title: "second", Body: "two"},
				{ID: 12, UserID: 8, Title: "third", Body: "three"},
			},
			9: {},
		},
		comments: map[int][]model.Comment{
			1:  {{PostID: 1, Name: "Bob", Email: "b@x.com", Body: "Nice"}},
			10: {{PostID: 10, Name: "Cy", Email: "c@x.com", Body: "ok"}, {PostID: 10, Name: "Di", Email: "d@x.com", Body: "sure"}},
		},
		failEmployee: map[int]bool{},
		failComments: map[int]bool{},
		failPosts:    map[int]bool{},
		gates:        map[int]chan struct{}{},
		postGates:    map[int]chan struct{}{},
	}
}

func (f *fakeGateway) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeGateway) FetchEmployees(ctx context.Context) ([]model.Employee, error) {
	f.record("employees")
	var out []model.Employee
	for _, e := range f.employees {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeGateway) FetchEmployee(ctx context.Context, id int) (*model.Employee, error) {
	if id <= 0 {
		return nil, nil
	}
	f.record("employee")
	f.mu.Lock()
	gate := f.gates[id]
	fail := f.failEmployee[id]
	e, ok := f.employees[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if fail {
		return nil, &gateway.RemoteFetchError{Op: gateway.OpFetchEmployee, ID: id, Cause: errBoom}
	}
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeGateway) FetchPostsForEmployee(ctx context.Context, id int) ([]model.Post, error) {
	if id <= 0 {
		return nil, nil
	}
	f.record("posts")
	f.mu.Lock()
	gate := f.postGates[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.failPosts[id] {
		return nil, &gateway.RemoteFetchError{Op: gateway.OpFetchPostsForEmployee, ID: id, Cause: errBoom}
	}
	posts, ok := f.posts[id]
	if !ok {
		return []model.Post{}, nil
	}
	return posts, nil
}

func (f *fakeGateway) FetchCommentsForPost(ctx context.Context, id int) ([]model.Comment, error) {
	if id <= 0 {
		return nil, nil
	}
	f.record("comments")
	f.mu.Lock()
	fail := f.failComments[id]
	f.mu.Unlock()
	if fail {
		return nil, &gateway.RemoteFetchError{Op: gateway.OpFetchCommentsForPost, ID: id, Cause: errBoom}
	}
	return append([]model.Comment{}, f.comments[id]...), nil
}
