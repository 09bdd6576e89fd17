package lockout

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestTracker(threshold int, window time.Duration) (*Tracker, *time.Time) {
	t := NewTracker(Config{Threshold: threshold, ResetWindow: window})
	current := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	t.now = func() time.Time { return current }
	return t, &current
}

func TestTracker_UnknownIdentifierIsZero(t *testing.T) {
	tr, _ := newTestTracker(5, 30*time.Minute)

	assert.Equal(t, 0, tr.FailureCount("nobody@example.com"))
	assert.False(t, tr.Locked("nobody@example.com"))
}

func TestTracker_LockBoundaryAtThreshold(t *testing.T) {
	tr, _ := newTestTracker(5, 30*time.Minute)

	for i := 1; i <= 4; i++ {
		tr.RecordFailure("a@x.com")
		assert.Equal(t, i, tr.FailureCount("a@x.com"))
		assert.False(t, tr.Locked("a@x.com"), "should not lock below threshold")
	}

	tr.RecordFailure("a@x.com")
	assert.Equal(t, 5, tr.FailureCount("a@x.com"))
	assert.True(t, tr.Locked("a@x.com"))

	// Counting continues past the threshold
	tr.RecordFailure("a@x.com")
	assert.Equal(t, 6, tr.FailureCount("a@x.com"))
	assert.True(t, tr.Locked("a@x.com"))
}

func TestTracker_SuccessResetsAnyCount(t *testing.T) {
	tr, _ := newTestTracker(5, 30*time.Minute)

	for i := 0; i < 7; i++ {
		tr.RecordFailure("a@x.com")
	}
	assert.True(t, tr.Locked("a@x.com"))

	tr.RecordSuccess("a@x.com")
	assert.Equal(t, 0, tr.FailureCount("a@x.com"))
	assert.False(t, tr.Locked("a@x.com"))
}

func TestTracker_WindowExpiryClearsCount(t *testing.T) {
	tr, current := newTestTracker(5, 30*time.Minute)

	for i := 0; i < 5; i++ {
		tr.RecordFailure("a@x.com")
	}
	assert.True(t, tr.Locked("a@x.com"))

	*current = current.Add(29 * time.Minute)
	assert.True(t, tr.Locked("a@x.com"), "still locked inside the window")

	*current = current.Add(time.Minute)
	assert.Equal(t, 0, tr.FailureCount("a@x.com"))
	assert.False(t, tr.Locked("a@x.com"))
}

func TestTracker_DeadlineNotExtendedBySubsequentFailures(t *testing.T) {
	tr, current := newTestTracker(5, 30*time.Minute)

	tr.RecordFailure("a@x.com")

	// Failures close to the deadline must not push it out
	*current = current.Add(29 * time.Minute)
	tr.RecordFailure("a@x.com")
	assert.Equal(t, 2, tr.FailureCount("a@x.com"))

	*current = current.Add(time.Minute)
	assert.Equal(t, 0, tr.FailureCount("a@x.com"),
		"window is measured from the first failure only")
}

func TestTracker_FailureAfterExpiryStartsFreshWindow(t *testing.T) {
	tr, current := newTestTracker(5, 30*time.Minute)

	tr.RecordFailure("a@x.com")
	*current = current.Add(31 * time.Minute)

	tr.RecordFailure("a@x.com")
	assert.Equal(t, 1, tr.FailureCount("a@x.com"))

	*current = current.Add(29 * time.Minute)
	assert.Equal(t, 1, tr.FailureCount("a@x.com"), "new window runs from the new first failure")
}

func TestTracker_IdentifiersAreIndependent(t *testing.T) {
	tr, _ := newTestTracker(5, 30*time.Minute)

	for i := 0; i < 5; i++ {
		tr.RecordFailure("a@x.com")
	}
	assert.True(t, tr.Locked("a@x.com"))
	assert.False(t, tr.Locked("b@x.com"))
	assert.Equal(t, 0, tr.FailureCount("b@x.com"))
}

func TestTracker_ConcurrentFailuresLoseNoUpdates(t *testing.T) {
	tr := NewTracker(Config{Threshold: 5, ResetWindow: 30 * time.Minute})

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			tr.RecordFailure("a@x.com")
		}()
	}
	wg.Wait()

	assert.Equal(t, n, tr.FailureCount("a@x.com"))
	assert.True(t, tr.Locked("a@x.com"))
}

func TestTracker_ConcurrentMixedIdentifiers(t *testing.T) {
	tr := NewTracker(Config{Threshold: 5, ResetWindow: 30 * time.Minute})

	const users = 20
	const failuresPerUser = 3
	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		id := fmt.Sprintf("user%d@x.com", u)
		for i := 0; i < failuresPerUser; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tr.RecordFailure(id)
			}()
		}
	}
	wg.Wait()

	for u := 0; u < users; u++ {
		id := fmt.Sprintf("user%d@x.com", u)
		assert.Equal(t, failuresPerUser, tr.FailureCount(id))
		assert.False(t, tr.Locked(id))
	}
}

func TestTracker_PruneDropsOnlyExpiredRecords(t *testing.T) {
	tr, current := newTestTracker(5, 30*time.Minute)

	tr.RecordFailure("old@x.com")
	*current = current.Add(20 * time.Minute)
	tr.RecordFailure("fresh@x.com")

	*current = current.Add(15 * time.Minute) // old is 35m in, fresh 15m in
	removed := tr.Prune()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, tr.FailureCount("old@x.com"))
	assert.Equal(t, 1, tr.FailureCount("fresh@x.com"))
}
