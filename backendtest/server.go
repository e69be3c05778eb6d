package backendtest

import (
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
)

const issuer = "backendtest"

// User is an account known to the server.
type User struct {
	ID       string
	Username string
	Password string
	Name     string
	Email    string
	Roles    []string
}

// Options configures a [Server].
type Options struct {
	Users []User
	// AccessTTL is the lifetime of issued access tokens. Defaults to one hour.
	AccessTTL time.Duration
	// KeepRefreshToken disables refresh token rotation; refresh answers carry only an
	// access token.
	KeepRefreshToken bool
	// WrapData nests every auth answer under a "data" object.
	WrapData bool
}

// TokenPair is an issued credential pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type account struct {
	User
	hash passwordHash
}

// Server is a fake authenticated REST backend.
type Server struct {
	opts   Options
	secret []byte
	srv    *httptest.Server

	mu       sync.Mutex
	gen      uint64
	users    map[string]*account
	refresh  map[string]string // refresh token -> username
	static   map[string]string // opaque access token -> username
	queued   []TokenPair
	fail     int
	wrap     bool
	hold     chan struct{}
	release  func()
	auths    map[string][]string
	requests map[string]int

	refreshCalls atomic.Int64
	loginCalls   atomic.Int64
	logoutCalls  atomic.Int64
}

// NewServer starts a server. Call Close when done.
func NewServer(opts Options) (*Server, error) {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = time.Hour
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}

	s := &Server{
		opts:     opts,
		secret:   secret,
		gen:      1,
		users:    make(map[string]*account, len(opts.Users)),
		refresh:  make(map[string]string),
		static:   make(map[string]string),
		wrap:     opts.WrapData,
		auths:    make(map[string][]string),
		requests: make(map[string]int),
	}

	for _, u := range opts.Users {
		h, err := hashPassword(u.Password)
		if err != nil {
			return nil, err
		}
		if u.ID == "" {
			u.ID = u.Username
		}
		s.users[u.Username] = &account{User: u, hash: h}
	}

	s.srv = httptest.NewServer(s.routes())
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireAuth)
	api.HandleFunc("/profile", s.handleProfile).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}", s.handleItem).Methods(http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	api.HandleFunc("/echo", s.handleEcho).Methods(http.MethodPost, http.MethodPut, http.MethodPatch)
	api.HandleFunc("/status/{code:[0-9]{3}}", s.handleStatus)
	api.HandleFunc("/slow", s.handleSlow).Methods(http.MethodGet)

	return r
}

// URL is the base URL of the server.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close shuts the server down and releases any held refresh.
func (s *Server) Close() {
	s.mu.Lock()
	release := s.release
	s.mu.Unlock()
	if release != nil {
		release()
	}
	s.srv.Close()
}

// SeedSession issues a valid pair for username without a login round trip.
func (s *Server) SeedSession(username string) (TokenPair, error) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	access, err := s.issueAccess(username, gen)
	if err != nil {
		return TokenPair{}, err
	}
	rt := newRefreshToken()

	s.mu.Lock()
	s.refresh[rt] = username
	s.mu.Unlock()
	return TokenPair{AccessToken: access, RefreshToken: rt}, nil
}

// AddRefreshToken registers an arbitrary refresh token for username.
func (s *Server) AddRefreshToken(token, username string) {
	s.mu.Lock()
	s.refresh[token] = username
	s.mu.Unlock()
}

// QueueRefreshPair makes the next successful refresh answer with exactly pair. Both
// tokens become valid for the refreshing user.
func (s *Server) QueueRefreshPair(pair TokenPair) {
	s.mu.Lock()
	s.queued = append(s.queued, pair)
	s.mu.Unlock()
}

// ExpireAccessTokens invalidates every access token issued so far.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	s.gen++
	clear(s.static)
	s.mu.Unlock()
}

// FailRefresh makes the refresh endpoint answer with status. Zero restores normal
// behavior.
func (s *Server) FailRefresh(status int) {
	s.mu.Lock()
	s.fail = status
	s.mu.Unlock()
}

// WrapData switches auth answers between the flat and the "data"-wrapped shape.
func (s *Server) WrapData(wrap bool) {
	s.mu.Lock()
	s.wrap = wrap
	s.mu.Unlock()
}

// HoldRefresh blocks refresh requests after they are counted until release is called.
func (s *Server) HoldRefresh() (release func()) {
	ch := make(chan struct{})
	var once sync.Once
	release = func() {
		once.Do(func() {
			s.mu.Lock()
			if s.hold == ch {
				s.hold = nil
				s.release = nil
			}
			s.mu.Unlock()
			close(ch)
		})
	}

	s.mu.Lock()
	s.hold = ch
	s.release = release
	s.mu.Unlock()
	return release
}

func (s *Server) RefreshCalls() int64 { return s.refreshCalls.Load() }
func (s *Server) LoginCalls() int64   { return s.loginCalls.Load() }
func (s *Server) LogoutCalls() int64  { return s.logoutCalls.Load() }

// Authorizations returns the Authorization headers seen on path, in arrival order.
// Rejected attempts are included.
func (s *Server) Authorizations(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.auths[path]...)
}

// Requests counts authenticated requests served on path.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// RefreshTokenValid reports whether token would currently be accepted by refresh.
func (s *Server) RefreshTokenValid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.refresh[token]
	return ok
}
