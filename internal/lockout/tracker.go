// Package lockout tracks consecutive failed login attempts per
// identifier and answers whether further attempts are currently
// blocked. State lives in process memory only; a restart clears all
// lockouts.
package lockout

import (
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// Config holds the lockout policy.
type Config struct {
	Threshold   int           // consecutive failures before lockout
	ResetWindow time.Duration // failure count clears this long after the first failure
}

// record tracks consecutive failures for one identifier.
// Invariant: windowEnds is set iff failures > 0.
type record struct {
	failures   int
	windowEnds time.Time
}

type shard struct {
	mu      sync.Mutex
	records map[string]*record
}

// Tracker counts consecutive failed logins per identifier with a
// time-bounded reset. Expiry is checked lazily on every access, so no
// background timers are needed and expiry cannot race an increment.
// Identifiers are sharded so unrelated users do not contend on one lock.
type Tracker struct {
	shards    [shardCount]shard
	threshold int
	window    time.Duration

	now func() time.Time // injectable for tests
}

// NewTracker creates a Tracker with the given policy.
func NewTracker(cfg Config) *Tracker {
	t := &Tracker{
		threshold: cfg.Threshold,
		window:    cfg.ResetWindow,
		now:       time.Now,
	}
	for i := range t.shards {
		t.shards[i].records = make(map[string]*record)
	}
	return t
}

func (t *Tracker) shardFor(identifier string) *shard {
	h := fnv.New32a()
	h.Write([]byte(identifier))
	return &t.shards[h.Sum32()%shardCount]
}

// expire drops the record if its reset window has elapsed.
// Caller must hold the shard lock.
func expire(s *shard, identifier string, rec *record, now time.Time) bool {
	if !now.Before(rec.windowEnds) {
		delete(s.records, identifier)
		return true
	}
	return false
}

// FailureCount returns the current consecutive failure count for the
// identifier. Unknown identifiers return 0. No side effects beyond
// dropping an expired record.
func (t *Tracker) FailureCount(identifier string) int {
	s := t.shardFor(identifier)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identifier]
	if !ok || expire(s, identifier, rec, t.now()) {
		return 0
	}
	return rec.failures
}

// Locked reports whether the identifier has reached the lockout threshold.
func (t *Tracker) Locked(identifier string) bool {
	return t.FailureCount(identifier) >= t.threshold
}

// RecordFailure increments the failure count. The reset deadline is set
// on the 0 to 1 transition only; later failures do not extend it.
func (t *Tracker) RecordFailure(identifier string) {
	s := t.shardFor(identifier)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := t.now()
	rec, ok := s.records[identifier]
	if ok && expire(s, identifier, rec, now) {
		ok = false
	}
	if !ok {
		rec = &record{windowEnds: now.Add(t.window)}
		s.records[identifier] = rec
	}
	rec.failures++
}

// RecordSuccess clears the failure count and any pending reset deadline.
func (t *Tracker) RecordSuccess(identifier string) {
	s := t.shardFor(identifier)
	s.mu.Lock()
	delete(s.records, identifier)
	s.mu.Unlock()
}

// Prune drops all expired records. The lazy expiry in the accessors
// keeps behavior correct without it; Prune only bounds memory for
// identifiers that are never looked up again.
func (t *Tracker) Prune() int {
	now := t.now()
	removed := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for id, rec := range s.records {
			if !now.Before(rec.windowEnds) {
				delete(s.records, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}
