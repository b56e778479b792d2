// Package session holds the per-browser authentication state. The Tracker
// is its only writer: it applies session-change events published by the
// credential gateway and lets readers snapshot, watch, or await a state.
package session

import (
	"sync/atomic"
	"time"
)

// Topic is the bus topic carrying session-change events.
const Topic = "session.changed"

// Reason records what caused a state change.
type Reason string

const (
	ReasonSignup  Reason = "signup"
	ReasonSignin  Reason = "signin"
	ReasonSignout Reason = "signout"
	ReasonExpired Reason = "expired"
)

// State is the authentication state of one browser session.
type State struct {
	SessionID string    `json:"sid"`
	Present   bool      `json:"present"`
	UserID    string    `json:"uid,omitempty"`
	Email     string    `json:"email,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Version   uint64    `json:"version"`
	Reason    Reason    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changed_at"`

	// Supersedes, when set, is the only stored version this event may
	// replace.
	Supersedes uint64 `json:"supersedes,omitempty"`
}

// Active reports whether the state is present and not yet expired at now.
func (s State) Active(now time.Time) bool {
	if !s.Present {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Expired reports whether the state was present but its expiry has passed.
func (s State) Expired(now time.Time) bool {
	return s.Present && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Absent returns the cleared form of s, keeping only the session id.
func Absent(sid string) State {
	return State{SessionID: sid}
}

// Versions hands out strictly increasing event versions. Versions start at
// the current Unix time in nanoseconds so that they keep increasing across
// process restarts sharing one store.
type Versions struct {
	last atomic.Uint64
}

// Next returns a version greater than any previously returned one.
func (v *Versions) Next() uint64 {
	now := uint64(time.Now().UnixNano())
	for {
		last := v.last.Load()
		next := last + 1
		if now > next {
			next = now
		}
		if v.last.CompareAndSwap(last, next) {
			return next
		}
	}
}
