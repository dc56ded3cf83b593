// Package session implements the query controller of a search session.
//
// A Session owns one State and a single dispatcher goroutine. Every change,
// whether it comes from the user (submit, load more, dismiss, edit query) or
// from a finished fetch, is an action applied by that goroutine through the
// pure transition functions in state.go. Fetches run in their own goroutines
// and post their outcome back as another action, so State is never touched
// concurrently.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rubiojr/hnsearch/pkg/algolia"
	"github.com/rubiojr/hnsearch/pkg/log"
	"github.com/rubiojr/hnsearch/pkg/metrics"
	"github.com/rubiojr/hnsearch/pkg/realtime"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// DefaultQuery is the term searched when a session starts.
const DefaultQuery = "redux"

// Options configures a Session.
type Options struct {
	ID           string
	DefaultQuery string
	HitsPerPage  int
	StalePolicy  StalePolicy
	Metrics      *metrics.Metrics
}

// actionFunc is one step of the dispatcher. It may ask for a fetch.
type actionFunc func(State) (State, *FetchRequest, error)

type envelope struct {
	apply actionFunc
	reply chan reply
	// read envelopes only observe the state; they publish nothing.
	read bool
}

type reply struct {
	snap Snapshot
	err  error
}

type Session struct {
	opts    Options
	fetcher algolia.Fetcher
	hub     *realtime.Hub[Snapshot]
	log     *log.Logger

	actions chan envelope
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once

	// Owned by the dispatcher goroutine.
	state   State
	version uint64
}

// New creates a session and starts its dispatcher. The session does not
// fetch anything until Start or Submit is called.
func New(fetcher algolia.Fetcher, opts Options) *Session {
	if opts.DefaultQuery == "" {
		opts.DefaultQuery = DefaultQuery
	}
	if opts.HitsPerPage <= 0 {
		opts.HitsPerPage = algolia.DefaultHitsPerPage
	}
	if opts.StalePolicy == "" {
		opts.StalePolicy = StaleLenient
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		opts:    opts,
		fetcher: fetcher,
		hub:     realtime.NewHub[Snapshot](8),
		log:     log.ForService("session"),
		actions: make(chan envelope),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   NewState(opts.DefaultQuery, opts.StalePolicy),
	}
	opts.Metrics.SessionOpened()
	go s.run()
	return s
}

// ID returns the session id given in Options.
func (s *Session) ID() string {
	return s.opts.ID
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case env := <-s.actions:
			if env.read {
				env.reply <- reply{snap: s.snapshot()}
				continue
			}
			next, req, err := env.apply(s.state)
			s.state = next
			if req != nil {
				var stamped FetchRequest
				s.state, stamped = FetchStarted(s.state, *req)
				go s.fetch(stamped)
			}

			s.version++
			snap := s.snapshot()
			s.hub.Broadcast(snap)
			if env.reply != nil {
				env.reply <- reply{snap: snap, err: err}
			}
		}
	}
}

func (s *Session) snapshot() Snapshot {
	snap := SnapshotOf(s.state)
	snap.SessionID = s.opts.ID
	snap.Version = s.version
	return snap
}

// fetch runs outside the dispatcher and reports back through post.
func (s *Session) fetch(req FetchRequest) {
	s.log.Debugf("session %s: fetching %q page %d (gen %d)", s.opts.ID, req.Term, req.Page, req.Generation)

	page, err := s.fetcher.FetchPage(s.ctx, req.Term, req.Page, s.opts.HitsPerPage)
	if err != nil {
		s.post(envelope{apply: func(st State) (State, *FetchRequest, error) {
			next, applied := FetchFailed(st, req, err)
			if !applied {
				s.opts.Metrics.StaleDropped()
				s.log.Debugf("session %s: dropped stale failure for %q", s.opts.ID, req.Term)
			}
			return next, nil, nil
		}})
		return
	}

	s.post(envelope{apply: func(st State) (State, *FetchRequest, error) {
		next, applied := FetchSucceeded(st, req, *page)
		if !applied {
			s.opts.Metrics.StaleDropped()
			s.log.Debugf("session %s: dropped stale page %d for %q", s.opts.ID, req.Page, req.Term)
		}
		return next, nil, nil
	}})
}

func (s *Session) post(env envelope) bool {
	select {
	case s.actions <- env:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// do applies fn on the dispatcher and returns the resulting snapshot.
func (s *Session) do(fn actionFunc) (Snapshot, error) {
	env := envelope{apply: fn, reply: make(chan reply, 1)}
	if !s.post(env) {
		return Snapshot{}, ErrClosed
	}
	select {
	case r := <-env.reply:
		return r.snap, r.err
	case <-s.ctx.Done():
		return Snapshot{}, ErrClosed
	}
}

// Start performs the initial load: the default query becomes the active term
// and its first page is fetched.
func (s *Session) Start() (Snapshot, error) {
	return s.Submit(s.opts.DefaultQuery)
}

// ChangeQuery sets the search box text without searching.
func (s *Session) ChangeQuery(text string) (Snapshot, error) {
	return s.do(func(st State) (State, *FetchRequest, error) {
		return ChangeQuery(st, text), nil, nil
	})
}

// Submit makes term the active term, fetching its first page when it has no
// cached results.
func (s *Session) Submit(term string) (Snapshot, error) {
	return s.do(func(st State) (State, *FetchRequest, error) {
		return Submit(st, term)
	})
}

// SubmitQuery submits the current search box text.
func (s *Session) SubmitQuery() (Snapshot, error) {
	return s.do(func(st State) (State, *FetchRequest, error) {
		return Submit(st, st.Query)
	})
}

// LoadMore fetches the next page of the active term.
func (s *Session) LoadMore() (Snapshot, error) {
	return s.do(func(st State) (State, *FetchRequest, error) {
		next, req, err := LoadMore(st)
		if err != nil {
			return st, nil, err
		}
		return next, &req, nil
	})
}

// Dismiss removes a hit from the active term's results.
func (s *Session) Dismiss(id string) (Snapshot, error) {
	return s.do(func(st State) (State, *FetchRequest, error) {
		return Dismiss(st, id), nil, nil
	})
}

// Snapshot returns the current state.
func (s *Session) Snapshot() (Snapshot, error) {
	env := envelope{reply: make(chan reply, 1), read: true}
	if !s.post(env) {
		return Snapshot{}, ErrClosed
	}
	select {
	case r := <-env.reply:
		return r.snap, nil
	case <-s.ctx.Done():
		return Snapshot{}, ErrClosed
	}
}

// Subscribe registers for snapshots published after every change. The
// returned function unregisters; the channel is closed when the session
// closes.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	id, ch := s.hub.Register()
	return ch, func() { s.hub.Unregister(id) }
}

// WaitIdle blocks until no fetch is in flight and returns that snapshot.
func (s *Session) WaitIdle(ctx context.Context) (Snapshot, error) {
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	snap, err := s.Snapshot()
	if err != nil {
		return snap, err
	}
	for snap.IsLoading {
		select {
		case next, ok := <-ch:
			if !ok {
				return snap, ErrClosed
			}
			if next.Version > snap.Version {
				snap = next
			}
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-s.ctx.Done():
			return snap, ErrClosed
		}
	}
	return snap, nil
}

// Closed reports whether Close has finished.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Close stops the dispatcher, cancels outstanding fetches and closes
// subscriber channels. It is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.hub.Close()
		s.opts.Metrics.SessionClosed()
	})
}
