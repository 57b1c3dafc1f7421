package leaderboard

import "fmt"

// Snapshot is the persisted shape of a leaderboard.
// UserIDs mirrors the position index; it is written for readers of the
// document and rebuilt from Entries on restore.
type Snapshot struct {
	Entries []Entry        `json:"entries"`
	UserIDs map[UserID]int `json:"user_ids"`
}

// Snapshot returns a deep copy of the leaderboard state.
func (l *Leaderboard) Snapshot() Snapshot {
	ids := make(map[UserID]int, len(l.index))
	for id, i := range l.index {
		ids[id] = i
	}
	return Snapshot{Entries: l.Entries(), UserIDs: ids}
}

// FromSnapshot rebuilds a leaderboard, keeping every stored field.
// Entries must be unique and sorted by HighestCount descending. Stored
// ranks that disagree with the entry positions are repaired by a reindex.
func FromSnapshot(s Snapshot) (*Leaderboard, error) {
	l := &Leaderboard{
		entries: make([]*Entry, 0, len(s.Entries)),
		index:   make(map[UserID]int, len(s.Entries)),
	}

	consistent := true
	for i := range s.Entries {
		e := s.Entries[i]
		if e.TimesCounted < 0 || e.MistakesMade < 0 {
			return nil, fmt.Errorf("%w: user %s has negative counters", ErrInvalidEntry, e.UserID)
		}
		if _, dup := l.index[e.UserID]; dup {
			return nil, fmt.Errorf("%w: user %s", ErrDuplicateEntry, e.UserID)
		}
		if i > 0 && s.Entries[i-1].HighestCount < e.HighestCount {
			return nil, fmt.Errorf("%w: position %d (%d) above %d", ErrUnsorted, i, e.HighestCount, s.Entries[i-1].HighestCount)
		}
		if e.Rank != i+1 {
			consistent = false
		}
		l.entries = append(l.entries, &e)
		l.index[e.UserID] = i
	}

	if !consistent {
		l.reindex()
	}
	return l, nil
}
