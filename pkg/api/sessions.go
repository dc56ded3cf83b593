package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rubiojr/hnsearch/pkg/log"
	"github.com/rubiojr/hnsearch/pkg/session"
)

// CookieName holds the session id in browser requests.
const CookieName = "hnsearch_session"

// SessionFactory builds a session for a new id.
type SessionFactory func(id string) *session.Session

// Sessions is a bounded registry of live sessions keyed by id. Entries idle
// longer than the TTL, or pushed out by newer ones, are closed.
type Sessions struct {
	mu      sync.RWMutex
	factory SessionFactory

	// addMu serializes cache insertions so a refresh cannot race a
	// capacity eviction.
	addMu sync.Mutex
	cache *expirable.LRU[string, *session.Session]
	log   *log.Logger
}

func NewSessions(factory SessionFactory, size int, ttl time.Duration) *Sessions {
	l := log.ForService("sessions")
	onEvict := func(id string, s *session.Session) {
		l.Debugf("closing session %s", id)
		s.Close()
	}
	return &Sessions{
		factory: factory,
		cache:   expirable.NewLRU[string, *session.Session](size, onEvict, ttl),
		log:     l,
	}
}

// SetFactory replaces the factory used for sessions created from now on.
func (s *Sessions) SetFactory(factory SessionFactory) {
	s.mu.Lock()
	s.factory = factory
	s.mu.Unlock()
}

// Get returns the live session with id and refreshes its expiry. A closed
// session is removed and reported as missing.
func (s *Sessions) Get(id string) (*session.Session, bool) {
	s.addMu.Lock()
	defer s.addMu.Unlock()

	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	if sess.Closed() {
		s.cache.Remove(id)
		return nil, false
	}
	s.cache.Add(id, sess)
	// The TTL sweeper may have closed it between Get and Add.
	if sess.Closed() {
		s.cache.Remove(id)
		return nil, false
	}
	return sess, true
}

// Create starts a new session and performs its initial search.
func (s *Sessions) Create() *session.Session {
	s.mu.RLock()
	factory := s.factory
	s.mu.RUnlock()

	id := uuid.NewString()
	sess := factory(id)
	if _, err := sess.Start(); err != nil {
		s.log.Warnf("session %s: initial search: %v", id, err)
	}
	s.addMu.Lock()
	s.cache.Add(id, sess)
	s.addMu.Unlock()
	s.log.Debugf("created session %s (%d live)", id, s.cache.Len())
	return sess
}

// FromRequest returns the session named by the request cookie, creating one
// and setting the cookie on w when it is missing or expired.
func (s *Sessions) FromRequest(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(CookieName); err == nil {
		if sess, ok := s.Get(c.Value); ok {
			return sess
		}
	}
	sess := s.Create()
	http.SetCookie(w, sessionCookie(sess.ID()))
	return sess
}

func sessionCookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Sessions) Len() int {
	return s.cache.Len()
}

// Close closes every live session.
func (s *Sessions) Close() {
	s.cache.Purge()
}
