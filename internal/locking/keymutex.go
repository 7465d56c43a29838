package locking

import (
	"fmt"
	"sync"
)

// KeyMutex provides mutual exclusion per string key. It is the in-process
// equivalent of a row-level exclusive lock: writers racing on the same
// logical identity (election:period:person, election:position:voter,
// election:period) serialize here, while unrelated keys proceed in parallel.
//
// Entries are reference counted and removed when the last holder releases,
// so the map does not grow with the number of distinct keys ever seen.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty KeyMutex
func New() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key, blocking until it is available, and
// returns the release function. The caller must invoke the release exactly
// once, typically via defer.
func (k *KeyMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

// CodeKey builds the lock key serializing code issuance and regeneration
// for one (election, period, person) triple.
func CodeKey(electionID, periodID, personID int) string {
	return fmt.Sprintf("code:%d:%d:%d", electionID, periodID, personID)
}

// BallotKey builds the lock key serializing cast/revoke/recast for one
// (election, position, voter) triple.
func BallotKey(electionID, positionID, voterID int) string {
	return fmt.Sprintf("ballot:%d:%d:%d", electionID, positionID, voterID)
}

// TallyKey builds the lock key serializing certification attempts for one
// (election, period) pair.
func TallyKey(electionID, periodID int) string {
	return fmt.Sprintf("tally:%d:%d", electionID, periodID)
}
