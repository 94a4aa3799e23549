package matchmaking

import (
	"sync"

	"github.com/google/uuid"
)

// WaitingEntry is one user waiting for a partner. TargetID is uuid.Nil
// unless the user asked for a specific partner.
type WaitingEntry struct {
	ConnectionID string
	UserID       uuid.UUID
	Username     string
	SkillsTeach  []string
	SkillsLearn  []string
	Rating       float64
	TargetID     uuid.UUID

	teach map[string]struct{}
	learn map[string]struct{}
}

func newWaitingEntry(connectionID string, userID uuid.UUID, username string, teach, learn []string, rating float64, targetID uuid.UUID) *WaitingEntry {
	return &WaitingEntry{
		ConnectionID: connectionID,
		UserID:       userID,
		Username:     username,
		SkillsTeach:  teach,
		SkillsLearn:  learn,
		Rating:       rating,
		TargetID:     targetID,
		teach:        normalizeSkills(teach),
		learn:        normalizeSkills(learn),
	}
}

// waitingQueue owns the process-wide waiting list. All mutation goes through
// its methods under one mutex, so scan-and-mutate sequences never interleave.
type waitingQueue struct {
	mu      sync.Mutex
	entries []*WaitingEntry
}

// takeMatch removes any stale entry for the candidate's user, then scans in
// insertion order for the first compatible entry. On a hit the matched entry
// is removed and returned; otherwise the candidate is appended and nil comes
// back. One critical section covers the whole sequence, which keeps the
// one-entry-per-user invariant.
func (q *waitingQueue) takeMatch(candidate *WaitingEntry) *WaitingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeUserLocked(candidate.UserID)

	for i, waiting := range q.entries {
		if !isMatch(candidate, waiting) {
			continue
		}
		q.entries = append(q.entries[:i], q.entries[i+1:]...)
		return waiting
	}

	q.entries = append(q.entries, candidate)
	return nil
}

// isMatch applies the matching priority: a targeted request in either
// direction wins regardless of skills; entries reserved for someone else are
// skipped; otherwise first skill overlap wins.
func isMatch(candidate, waiting *WaitingEntry) bool {
	if candidate.TargetID != uuid.Nil && waiting.UserID == candidate.TargetID {
		return true
	}
	if waiting.TargetID != uuid.Nil && waiting.TargetID == candidate.UserID {
		return true
	}
	if candidate.TargetID != uuid.Nil || waiting.TargetID != uuid.Nil {
		return false
	}
	return skillsCompatible(candidate.teach, candidate.learn, waiting.teach, waiting.learn)
}

func (q *waitingQueue) removeUserLocked(userID uuid.UUID) bool {
	for i, e := range q.entries {
		if e.UserID == userID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (q *waitingQueue) removeUser(userID uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeUserLocked(userID)
}

func (q *waitingQueue) removeConnection(connectionID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.ConnectionID == connectionID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (q *waitingQueue) contains(userID uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.entries {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

// snapshot copies the current entries for inspection outside the lock.
func (q *waitingQueue) snapshot() []*WaitingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*WaitingEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *waitingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
