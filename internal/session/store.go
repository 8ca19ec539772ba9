// Package session keeps the live order sessions and the tokens that address them.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"diner/internal/order"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ErrUnknownSession is returned for ids with no live session
var ErrUnknownSession = errors.New("unknown session")

type entry struct {
	mu      sync.Mutex
	session *order.Session
}

// Store holds sessions in memory. Each session is only touched by one
// caller at a time.
type Store struct {
	menu        order.Menu
	idleTimeout time.Duration
	logger      *log.Logger
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewStore creates an empty store. Sessions idle for longer than
// idleTimeout are dropped by Sweep; zero disables expiry.
func NewStore(menu order.Menu, idleTimeout time.Duration, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{
		menu:        menu,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*entry),
	}
}

// Create starts a new session and returns its id
func (st *Store) Create() string {
	id := uuid.NewString()
	st.mu.Lock()
	st.sessions[id] = &entry{session: order.NewSession(id, st.menu)}
	st.mu.Unlock()
	return id
}

// Do runs fn with exclusive access to the session
func (st *Store) Do(id string, fn func(s *order.Session) error) error {
	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return ErrUnknownSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Snapshot returns a copy of the session state
func (st *Store) Snapshot(id string) (order.Snapshot, error) {
	var snap order.Snapshot
	err := st.Do(id, func(s *order.Session) error {
		snap = s.Snapshot()
		return nil
	})
	return snap, err
}

// Exists reports whether id names a live session
func (st *Store) Exists(id string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, ok := st.sessions[id]
	return ok
}

// Delete drops a session
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the idle timeout and returns
// their ids
func (st *Store) Sweep() []string {
	if st.idleTimeout <= 0 {
		return nil
	}
	cutoff := st.now().Add(-st.idleTimeout)

	st.mu.RLock()
	var stale []string
	for id, e := range st.sessions {
		e.mu.Lock()
		idle := e.session.LastActivity().Before(cutoff)
		e.mu.Unlock()
		if idle {
			stale = append(stale, id)
		}
	}
	st.mu.RUnlock()

	if len(stale) == 0 {
		return nil
	}
	st.mu.Lock()
	for _, id := range stale {
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	st.logger.WithField("expired", len(stale)).Debug("idle sessions swept")
	return stale
}

// Run sweeps every interval until ctx is done. onExpire, if set, is called
// with the ids removed by each sweep.
func (st *Store) Run(ctx context.Context, interval time.Duration, onExpire func(ids []string)) {
	if interval <= 0 || st.idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ids := st.Sweep(); len(ids) > 0 && onExpire != nil {
				onExpire(ids)
			}
		}
	}
}
