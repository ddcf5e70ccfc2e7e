package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/shared"
)

// Persister saves and restores a session outside the process.
type Persister interface {
	Save(ctx context.Context, s models.Session) error
	Load(ctx context.Context) (*models.Session, error)
	Clear(ctx context.Context) error
}

// Listener is called with a copy of the session after every change.
//
// Changes are delivered one at a time in the order they were applied, so the last snapshot a
// listener receives is the store's current session. A listener must not change the session.
type Listener func(models.Session)

// Store is the process-wide session container.
//
// Writes replace the whole session under one lock, so readers never see a user from one
// login paired with the token of another.
type Store struct {
	changeMu  sync.Mutex // serializes apply, persist and notify
	mu        sync.RWMutex
	current   models.Session
	listeners map[int]Listener
	nextID    int

	persister Persister
	logger    *log.Logger
	now       func() time.Time
}

// Option configures a [Store].
type Option func(*Store)

// WithPersister stores every change through p.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithLogger sets the logger used to report persistence failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty [Store].
func New(opts ...Option) *Store {
	s := &Store{
		listeners: make(map[int]Listener),
		logger:    shared.NewLogger(nil),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSession replaces the session with user and token.
//
// It never fails: a persistence error is logged and the in-memory session still changes.
func (s *Store) SetSession(user models.UserSummary, token string) {
	next := models.Session{User: &user, Token: token, CreatedAt: s.now()}

	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Save(context.Background(), next); err != nil {
			s.logger.Warn("failed to persist session", "error", err)
		}
	}

	s.notify(next)
}

// ClearSession resets to the empty session.
func (s *Store) ClearSession() {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.mu.Lock()
	s.current = models.Session{}
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Clear(context.Background()); err != nil {
			s.logger.Warn("failed to clear persisted session", "error", err)
		}
	}

	s.notify(models.Session{})
}

// Token returns the current bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// Session returns a copy of the current session.
func (s *Store) Session() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.current)
}

// Authenticated reports whether a token is held.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Subscribe registers fn for change notifications and returns a function that removes it.
//
// Listeners run on the goroutine that changed the session, in registration order, after the
// lock is released, so they may read the store.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Restore loads the persisted session, if any, and notifies listeners.
//
// It returns [shared.ErrNoSession] when nothing is stored, leaving the store empty.
func (s *Store) Restore(ctx context.Context) error {
	if s.persister == nil {
		return shared.ErrNoSession
	}

	restored, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	if restored == nil || restored.Token == "" {
		return shared.ErrNoSession
	}

	next := copySession(*restored)

	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.notify(copySession(next))
	return nil
}

func (s *Store) notify(snapshot models.Session) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	slices.Sort(ids)

	for _, id := range ids {
		s.mu.RLock()
		fn, ok := s.listeners[id]
		s.mu.RUnlock()
		if ok {
			fn(copySession(snapshot))
		}
	}
}

func copySession(in models.Session) models.Session {
	out := in
	if in.User != nil {
		u := *in.User
		out.User = &u
	}
	return out
}

