// Package apitest serves a small in-memory copy of the blog API for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kingrea/acme-blogs/internal/model"
)

// Fixture is the data served by a Server.
type Fixture struct {
	Employees []model.Employee
	Posts     []model.Post
	Comments  []model.Comment
}

// DefaultFixture returns two employees: 1 with posts 1 and 2, 2 with post 11.
func DefaultFixture() Fixture {
	return Fixture{
		Employees: []model.Employee{
			{ID: 1, Name: "Leanne Graham", Username: "Bret", Email: "Sincere@april.biz",
				Company: model.Company{Name: "Romaguera-Crona", CatchPhrase: "Multi-layered client-server neural-net"}},
			{ID: 2, Name: "Ervin Howell", Username: "Antonette", Email: "Shanna@melissa.tv",
				Company: model.Company{Name: "Deckow-Crist", CatchPhrase: "Proactive didactic contingency"}},
		},
		Posts: []model.Post{
			{ID: 1, UserID: 1, Title: "sunt aut facere", Body: "quia et suscipit"},
			{ID: 2, UserID: 1, Title: "qui est esse", Body: "est rerum tempore vitae"},
			{ID: 11, UserID: 2, Title: "et ea vero quia laudantium", Body: "delectus reiciendis molestiae"},
		},
		Comments: []model.Comment{
			{ID: 1, PostID: 1, Name: "id labore ex et quam laborum", Email: "Eliseo@gardner.biz", Body: "laudantium enim quasi"},
			{ID: 2, PostID: 1, Name: "quo vero reiciendis velit", Email: "Jayne_Kuhic@sydney.com", Body: "est natus enim nihil"},
			{ID: 6, PostID: 2, Name: "et fugit eligendi deleniti", Email: "Presley.Mueller@myrl.com", Body: "doloribus at sed quis"},
		},
	}
}

// Server is an httptest server answering /users, /users/{id}, /posts?userId=
// and /comments?postId=.
type Server struct {
	*httptest.Server
	fixture  Fixture
	requests atomic.Int64
	failing  atomic.Bool

	mu    sync.Mutex
	holds map[int]*hold
}

type hold struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// HoldPosts blocks /posts?userId=userID until release is called. arrived is
// closed once such a request is waiting.
func (s *Server) HoldPosts(userID int) (arrived <-chan struct{}, release func()) {
	h := &hold{arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	if s.holds == nil {
		s.holds = map[int]*hold{}
	}
	s.holds[userID] = h
	s.mu.Unlock()
	return h.arrived, func() {
		s.mu.Lock()
		delete(s.holds, userID)
		s.mu.Unlock()
		close(h.release)
	}
}

// New starts a server for fixture and closes it when t finishes.
func New(t testing.TB, fixture Fixture) *Server {
	t.Helper()
	s := &Server{fixture: fixture}
	mux := http.NewServeMux()
	mux.HandleFunc("/users", s.handleUsers)
	mux.HandleFunc("/users/", s.handleUser)
	mux.HandleFunc("/posts", s.handlePosts)
	mux.HandleFunc("/comments", s.handleComments)
	s.Server = httptest.NewServer(s.count(mux))
	t.Cleanup(s.Close)
	return s
}

// Requests returns how many requests the server has answered.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// SetFailing makes every subsequent request answer 500 until reset.
func (s *Server) SetFailing(failing bool) {
	s.failing.Store(failing)
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if s.failing.Load() {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.fixture.Employees)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/users/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	for _, e := range s.fixture.Employees {
		if e.ID == id {
			writeJSON(w, e)
			return
		}
	}
	writeJSON(w, map[string]any{})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.Atoi(r.URL.Query().Get("userId"))
	s.mu.Lock()
	h := s.holds[userID]
	s.mu.Unlock()
	if h != nil {
		h.once.Do(func() { close(h.arrived) })
		<-h.release
	}
	out := []model.Post{}
	for _, p := range s.fixture.Posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	writeJSON(w, out)
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	postID, _ := strconv.Atoi(r.URL.Query().Get("postId"))
	out := []model.Comment{}
	for _, c := range s.fixture.Comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
