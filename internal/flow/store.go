package flow

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"product-studio/internal/agent/deps"

	"github.com/google/uuid"
)

// Options tunes the session store
type Options struct {
	SessionTTL        time.Duration // idle sessions older than this are evicted
	GenerationTimeout time.Duration // 0 means no local timeout
	JanitorInterval   time.Duration // 0 picks SessionTTL/4
}

// Store keeps transient sessions in memory and runs their attempts in the background
type Store struct {
	content deps.ContentGenerator
	cover   deps.CoverGenerator
	opts    Options
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
	once   sync.Once
}

// NewStore creates a store and starts its eviction janitor
func NewStore(content deps.ContentGenerator, cover deps.CoverGenerator, opts Options) *Store {
	s := newStore(content, cover, opts, time.Now)

	interval := opts.JanitorInterval
	if interval <= 0 {
		interval = opts.SessionTTL / 4
	}
	if opts.SessionTTL > 0 && interval > 0 {
		go s.janitor(interval)
	}
	return s
}

func newStore(content deps.ContentGenerator, cover deps.CoverGenerator, opts Options, now func() time.Time) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		content:  content,
		cover:    cover,
		opts:     opts,
		now:      now,
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Create starts a new session in the Idea step
func (s *Store) Create() *Session {
	sess := newSession(uuid.New().String(), s.content, s.cover, s.now)

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	log.Printf("[SESSION] Created %s", sess.ID())
	return sess
}

// Get returns a session and refreshes its idle timer
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()

	if ok {
		sess.markSeen()
	}
	return sess, ok
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Launch runs an attempt in the background.
// The attempt is detached from the triggering request; only Close or the
// configured generation timeout can stop it.
func (s *Store) Launch(attempt *Attempt) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx := s.ctx
		if s.opts.GenerationTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.opts.GenerationTimeout)
			defer cancel()
		}

		if err := attempt.Run(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
			log.Printf("[FLOW] Attempt for session %s failed: %v", attempt.session.ID(), err)
		}
	}()
}

// EvictIdle removes sessions not seen within SessionTTL. Loading sessions are kept.
func (s *Store) EvictIdle() int {
	if s.opts.SessionTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.opts.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		lastSeen, loading := sess.idleSince()
		if loading || lastSeen.After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	if evicted > 0 {
		log.Printf("[SESSION] Evicted %d idle sessions, %d remaining", evicted, len(s.sessions))
	}
	return evicted
}

func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.EvictIdle()
		case <-s.done:
			return
		}
	}
}

// Closed reports whether Close has been called
func (s *Store) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Close stops the janitor, cancels running attempts and waits for them to finish
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.done)
		s.cancel()
	})
	s.wg.Wait()
}
