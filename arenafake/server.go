// Package arenafake is an in-process implementation of the contest
// backend the arena talks to. Tests run it under httptest and
// cmd/mockserver serves it for local development.
package arenafake

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/klauspost/compress/gzhttp"
	"github.com/programme-lv/arena/arenaapi"
	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/contest"
)

type Config struct {
	JwtKey    []byte
	AccessTTL time.Duration
	// RequestLogger enables httplog request logging when set.
	RequestLogger *httplog.Logger
	Logger        *slog.Logger
}

type user struct {
	id        string
	username  string
	bcryptPwd []byte
}

type contestEntry struct {
	contest      contest.Contest
	participants map[string]*contest.Participant
	order        []string
}

type Server struct {
	cfg    Config
	router *chi.Mux
	log    *slog.Logger

	mu          sync.Mutex
	users       map[string]*user // by username
	refresh     map[string]string
	contests    map[string]*contestEntry
	recorded    map[string]arenaapi.BulkSubmitRequest // by attemptKey
	seenKeys    map[string]bool
	submitCalls int
	failNext    int
	failMsg     string
}

func New(cfg Config) *Server {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if len(cfg.JwtKey) == 0 {
		cfg.JwtKey = []byte("arenafake")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		log:      cfg.Logger,
		users:    map[string]*user{},
		refresh:  map[string]string{},
		contests: map[string]*contestEntry{},
		recorded: map[string]arenaapi.BulkSubmitRequest{},
		seenKeys: map[string]bool{},
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() *chi.Mux {
	router := chi.NewRouter()

	if s.cfg.RequestLogger != nil {
		router.Use(httplog.RequestLogger(s.cfg.RequestLogger))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           3000,
	}))
	router.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })
	router.Use(auth.GetJwtAuthMiddleware(s.cfg.JwtKey))

	router.Post("/auth/login", s.postLogin)
	router.Post("/auth/refresh", s.postRefresh)
	router.Get("/contests/{contestID}", s.getContest)
	router.Post("/contests/{contestID}/register", s.postRegister)
	router.Post("/contests/submit", s.postSubmit)
	return router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(address string) error {
	return http.ListenAndServe(address, s.router)
}

// AddContest registers c; participants already listed in c are kept.
func (s *Server) AddContest(c contest.Contest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &contestEntry{
		contest:      c,
		participants: map[string]*contest.Participant{},
	}
	for _, p := range c.Participants {
		p := p
		e.participants[p.User.ID] = &p
		e.order = append(e.order, p.User.ID)
	}
	e.contest.Participants = nil
	s.contests[c.ID] = e
}

// SetSubmitted flips the submitted flag of a participant, adding them
// first if needed.
func (s *Server) SetSubmitted(contestID, userID string, submitted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.contests[contestID]
	if !ok {
		return
	}
	p := e.participant(userID, s.usernameOf(userID))
	p.IsSubmitted = submitted
}

func (e *contestEntry) participant(userID, username string) *contest.Participant {
	if p, ok := e.participants[userID]; ok {
		return p
	}
	p := &contest.Participant{User: contest.User{ID: userID, Username: username}}
	e.participants[userID] = p
	e.order = append(e.order, userID)
	return p
}

func (e *contestEntry) view() contest.Contest {
	c := e.contest
	c.Participants = make([]contest.Participant, 0, len(e.order))
	for _, id := range e.order {
		c.Participants = append(c.Participants, *e.participants[id])
	}
	return c
}

func (s *Server) usernameOf(userID string) string {
	for _, u := range s.users {
		if u.id == userID {
			return u.username
		}
	}
	return ""
}

// FailNextSubmits makes the next n submit calls fail validation with msg.
func (s *Server) FailNextSubmits(n int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.failMsg = msg
}

// SubmitCalls counts every request that reached the submit endpoint.
func (s *Server) SubmitCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitCalls
}

// Recorded returns what was stored for the attempt, if anything.
func (s *Server) Recorded(contestID, userID string, virtual bool) (arenaapi.BulkSubmitRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recorded[attemptKey(contestID, userID, virtual)]
	return r, ok
}

func attemptKey(contestID, userID string, virtual bool) string {
	k := contestID + "/" + userID
	if virtual {
		k += "/virtual"
	}
	return k
}
