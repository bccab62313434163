package sessions

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/jrsteele09/citypulse/internal/errors"
	"github.com/jrsteele09/citypulse/token"
	"github.com/rs/zerolog/log"
)

// Store is the single source of truth for the current bearer token. The
// session is mirrored in memory so the repo is only read once per process.
// Persistence is best-effort: repo failures are logged and the store behaves
// as if there were no session.
type Store struct {
	mu     sync.Mutex
	repo   Repo
	cached *Session
	loaded bool
	now    func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(repo Repo, opts ...Option) *Store {
	s := &Store{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the bearer token if a session exists and has not expired. An
// expired session is cleared as a side effect.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.current()
	if !ok {
		return "", false
	}
	if !session.Valid(s.now()) {
		log.Debug().Time("expiresAt", session.ExpiresAt).Msg("session expired, clearing")
		s.clear()
		return "", false
	}
	return session.Token, true
}

// Session returns the stored session without checking its expiry.
func (s *Store) Session() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

// Set replaces any existing session. When expiresInSeconds is not positive the
// expiry is read from the token's exp claim, if it has one.
func (s *Store) Set(tokenValue string, expiresInSeconds int64) {
	now := s.now()
	expiresAt := now.Add(time.Duration(expiresInSeconds) * time.Second)
	if expiresInSeconds <= 0 {
		if exp, ok := token.Expiry(tokenValue); ok {
			expiresAt = exp
		}
	}

	session := Session{Token: tokenValue, ExpiresAt: expiresAt}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = &session
	s.loaded = true
	s.write(&session)
}

// Clear removes the session from memory and storage. It is idempotent.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Store) clear() {
	s.cached = nil
	s.loaded = true
	s.write(nil)
}

// current returns the cached session, reading the repo on first use.
func (s *Store) current() (Session, bool) {
	if !s.loaded {
		s.cached = s.read()
		s.loaded = true
	}
	if s.cached == nil {
		return Session{}, false
	}
	return *s.cached, true
}

func (s *Store) read() *Session {
	raw, err := s.repo.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			log.Warn().Err(err).Str("key", StorageKey).Msg("failed to read session from storage")
		}
		return nil
	}

	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		log.Warn().Err(err).Str("key", StorageKey).Msg("failed to decode stored session")
		return nil
	}

	session, ok := stored.session()
	if !ok {
		return nil
	}
	return &session
}

func (s *Store) write(session *Session) {
	if session == nil {
		if err := s.repo.Delete(StorageKey); err != nil {
			log.Warn().Err(err).Str("key", StorageKey).Msg("failed to remove persisted session")
		}
		return
	}

	raw, err := json.Marshal(session.stored())
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode session")
		return
	}
	if err := s.repo.Put(StorageKey, raw); err != nil {
		log.Warn().Err(err).Str("key", StorageKey).Msg("failed to persist session")
	}
}
