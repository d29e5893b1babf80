package controller

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions keeps one Controller per browser session.
type Sessions struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*session
	factory func() *Controller
	ttl     time.Duration
	now     func() time.Time
}

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// NewSessions creates a registry. Sessions idle for longer than ttl are
// dropped by Sweep; ttl <= 0 keeps them forever.
func NewSessions(factory func() *Controller, ttl time.Duration) *Sessions {
	return &Sessions{
		items:   make(map[uuid.UUID]*session),
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the controller for id. A missing, malformed or expired id gets
// a fresh session; the returned id is the one the client should keep.
func (s *Sessions) Get(id string) (*Controller, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if key, err := uuid.Parse(id); err == nil {
		if it, ok := s.items[key]; ok && !s.expired(it, now) {
			it.lastSeen = now
			return it.ctrl, key.String()
		}
	}

	key := uuid.New()
	s.items[key] = &session{ctrl: s.factory(), lastSeen: now}
	return s.items[key].ctrl, key.String()
}

// Sweep removes expired sessions and reports how many were dropped.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for k, it := range s.items {
		if s.expired(it, now) {
			delete(s.items, k)
			n++
		}
	}
	return n
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Sessions) expired(it *session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(it.lastSeen) > s.ttl
}

// Resolve makes sure a session exists for id and returns the id the client
// should keep.
func (s *Sessions) Resolve(id string) string {
	_, key := s.Get(id)
	return key
}

// Reset replaces the controller behind id with a fresh one, as on a page
// reload. Unknown or expired ids get a new session like Get.
func (s *Sessions) Reset(id string) (*Controller, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key, err := uuid.Parse(id)
	if err != nil {
		key = uuid.New()
	}
	s.items[key] = &session{ctrl: s.factory(), lastSeen: now}
	return s.items[key].ctrl, key.String()
}
