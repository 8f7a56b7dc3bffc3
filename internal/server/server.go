// Package server implements the TCP chat relay.
//
// Concurrency overview
// --------------------
//
//	┌─────────────────────────────────────────────────────────┐
//	│  Accept loop (Serve)                                     │
//	│  One detached worker goroutine per accepted connection.  │
//	└───────────────────┬─────────────────────────────────────┘
//	                    │  login → sender loop | receiver loop
//	                    ▼
//	┌─────────────────────────────────────────────────────────┐
//	│  room.Registry  (one mutex, lookup-or-create only)       │
//	│  room.Room      (one mutex per room, held per broadcast) │
//	│  queue.Queue    (one per receiver, 1s bounded wait)      │
//	└─────────────────────────────────────────────────────────┘
//
// Workers share nothing but the registry. Each owns its connection and user
// and releases both on every exit path.
package server

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sort"
	"sync"
	"time"

	"chatrelay/internal/queue"
	"chatrelay/internal/room"
)

const (
	defaultWriteTimeout = 10 * time.Second
)

// Config holds server settings. Zero values select defaults.
type Config struct {
	// Addr is the TCP address to listen on, e.g. ":9000".
	Addr string
	// WriteTimeout bounds each write to a client. Negative disables it.
	WriteTimeout time.Duration
	// PollInterval is how long a receiver waits on its queue before
	// rechecking server state.
	PollInterval time.Duration
	// Logger receives server and worker logs. Defaults to log.Default().
	Logger *log.Logger
}

// SessionInfo describes one live connection.
type SessionInfo struct {
	ID         string
	RemoteAddr string
	Username   string // empty until login succeeds
	Role       string // "sender", "receiver", or empty before login
	Since      time.Time
}

// Server owns the listener, the room registry, and the set of live sessions.
type Server struct {
	cfg   Config
	log   *log.Logger
	rooms *room.Registry

	mu       sync.Mutex
	listener net.Listener
	sessions map[string]*session

	done      chan struct{}
	closeOnce sync.Once
}

type session struct {
	w    *worker
	info SessionInfo
}

// New creates a Server. Call Listen and then Serve.
func New(cfg Config) *Server {
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.WriteTimeout < 0 {
		cfg.WriteTimeout = 0
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = queue.DefaultWait
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Server{
		cfg:      cfg,
		log:      cfg.Logger,
		rooms:    room.NewRegistry(),
		sessions: make(map[string]*session),
		done:     make(chan struct{}),
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen on %q: %w", s.cfg.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.log.Printf("[server] listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until the listener fails. Each connection is
// handled by its own goroutine, which Serve never waits for. After Shutdown
// it returns nil; any other accept failure is returned.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server: Serve called before Listen")
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closing() {
				return nil
			}
			s.log.Printf("[server] accept failed: %v", err)
			return fmt.Errorf("server: accept: %w", err)
		}
		go s.serveConn(conn)
	}
}

// ListenAndServe is Listen followed by Serve.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown stops accepting and closes every live connection. Workers notice
// on their next read, write, or queue poll and tear themselves down.
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		ln := s.listener
		live := make([]*worker, 0, len(s.sessions))
		for _, sess := range s.sessions {
			live = append(live, sess.w)
		}
		s.mu.Unlock()

		if ln != nil {
			ln.Close()
		}
		for _, w := range live {
			w.conn.Close()
		}
		s.log.Printf("[server] shut down, closed %d session(s)", len(live))
	})
}

func (s *Server) closing() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// FindOrCreateRoom returns the room called name, creating it on first use.
func (s *Server) FindOrCreateRoom(name string) *room.Room {
	return s.rooms.FindOrCreate(name)
}

// Rooms exposes the registry for inspection.
func (s *Server) Rooms() *room.Registry {
	return s.rooms
}

// ---------------------------------------------------------------------------
// Session tracking
// ---------------------------------------------------------------------------

// track registers w. It refuses once Shutdown has started so no connection
// escapes the shutdown sweep.
func (s *Server) track(w *worker) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing() {
		return false
	}
	s.sessions[w.id] = &session{
		w: w,
		info: SessionInfo{
			ID:         w.id,
			RemoteAddr: w.conn.RemoteAddr().String(),
			Since:      time.Now().UTC(),
		},
	}
	return true
}

func (s *Server) identify(id, username, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.info.Username = username
		sess.info.Role = role
	}
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sessions returns a snapshot of live connections ordered by start time.
func (s *Server) Sessions() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Since.Before(out[j].Since) })
	return out
}
