// Package leaderboard ranks participants by the highest count they have
// ever reached.
//
// Ordering: HighestCount DESC, then insertion order (stable). Entries that
// reach an equal score later stay below the ones that got there first.
//
// A Leaderboard is not safe for concurrent use; callers own the locking.
package leaderboard

import (
	"slices"
	"sort"

	"github.com/okian/tally/internal/domain/model"
)

// UserID is the participant identifier used as the entry key.
type UserID = model.UserID

// Entry is one participant's standing.
type Entry struct {
	UserID           UserID `json:"user_id"`
	HighestCount     int64  `json:"highest_count"`
	LastHighestCount int64  `json:"last_highest_count"`
	TimesCounted     int64  `json:"times_counted"`
	MistakesMade     int64  `json:"mistakes_made"`
	Rank             int    `json:"rank"`
	LastRank         int    `json:"last_rank"`
}

// Leaderboard keeps entries sorted by HighestCount with a position index.
// entries is the source of truth; index and the Rank fields are derived
// and rebuilt together by reindex.
type Leaderboard struct {
	entries []*Entry
	index   map[UserID]int
}

// New returns an empty leaderboard.
func New() *Leaderboard {
	return &Leaderboard{index: make(map[UserID]int)}
}

// reindex rebuilds ranks and the position index in one pass.
func (l *Leaderboard) reindex() {
	clear(l.index)
	for i, e := range l.entries {
		e.LastRank = e.Rank
		e.Rank = i + 1
		l.index[e.UserID] = i
	}
}

// insertionPoint returns the first position in entries[:hi] whose score is
// strictly below count.
func (l *Leaderboard) insertionPoint(count int64, hi int) int {
	return sort.Search(hi, func(i int) bool {
		return l.entries[i].HighestCount < count
	})
}

// RecordEntry registers a successful count by userID.
// Returns true when this raised the user's personal best (a first count
// always does).
func (l *Leaderboard) RecordEntry(userID UserID, count int64) bool {
	idx, ok := l.index[userID]
	if !ok {
		e := &Entry{UserID: userID, HighestCount: count, TimesCounted: 1}
		pos := l.insertionPoint(count, len(l.entries))
		l.entries = slices.Insert(l.entries, pos, e)
		l.reindex()
		return true
	}

	e := l.entries[idx]
	e.TimesCounted++
	if count <= e.HighestCount {
		return false
	}

	e.LastHighestCount = e.HighestCount
	e.HighestCount = count

	// Only ever moves toward rank 1; equal scores above stay ahead.
	if idx > 0 && l.entries[idx-1].HighestCount < count {
		pos := l.insertionPoint(count, idx)
		l.entries = slices.Delete(l.entries, idx, idx+1)
		l.entries = slices.Insert(l.entries, pos, e)
		l.reindex()
	}
	return true
}

// RecordMistake bumps the mistake counter of an existing entry.
// It never creates entries and never changes the ordering.
func (l *Leaderboard) RecordMistake(userID UserID) bool {
	idx, ok := l.index[userID]
	if !ok {
		return false
	}
	l.entries[idx].MistakesMade++
	return true
}

// RemoveEntry deletes the user's entry. Returns false if it did not exist.
func (l *Leaderboard) RemoveEntry(userID UserID) bool {
	idx, ok := l.index[userID]
	if !ok {
		return false
	}
	l.entries = slices.Delete(l.entries, idx, idx+1)
	l.reindex()
	return true
}

// Entry returns a copy of the user's entry.
func (l *Leaderboard) Entry(userID UserID) (Entry, bool) {
	idx, ok := l.index[userID]
	if !ok {
		return Entry{}, false
	}
	return *l.entries[idx], true
}

// EntryByRank returns a copy of the entry holding a 1-based rank.
func (l *Leaderboard) EntryByRank(rank int) (Entry, bool) {
	if rank < 1 || rank > len(l.entries) {
		return Entry{}, false
	}
	return *l.entries[rank-1], true
}

// TopEntries returns copies of the first n entries. n may exceed Len.
func (l *Leaderboard) TopEntries(n int) []Entry {
	n = min(max(n, 0), len(l.entries))
	out := make([]Entry, n)
	for i := range n {
		out[i] = *l.entries[i]
	}
	return out
}

// Entries returns copies of all entries in rank order.
func (l *Leaderboard) Entries() []Entry {
	return l.TopEntries(len(l.entries))
}

// Len returns the number of ranked participants.
func (l *Leaderboard) Len() int { return len(l.entries) }

// HighestCount returns the user's personal best.
func (l *Leaderboard) HighestCount(userID UserID) (int64, bool) {
	e, ok := l.Entry(userID)
	return e.HighestCount, ok
}

// LastHighestCount returns the user's previous personal best.
func (l *Leaderboard) LastHighestCount(userID UserID) (int64, bool) {
	e, ok := l.Entry(userID)
	return e.LastHighestCount, ok
}

// Rank returns the user's current rank.
func (l *Leaderboard) Rank(userID UserID) (int, bool) {
	e, ok := l.Entry(userID)
	return e.Rank, ok
}

// LastRank returns the rank the user held before the latest reindex.
func (l *Leaderboard) LastRank(userID UserID) (int, bool) {
	e, ok := l.Entry(userID)
	return e.LastRank, ok
}
