package encounter

import (
	"context"
	"sync"
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// MemoryStore is an in-process SnapshotStore. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	seq   int64
	snaps map[string][]Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string][]Snapshot)}
}

// Save implements SnapshotStore.
func (m *MemoryStore) Save(_ context.Context, encounterID string, state combat.State) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.snaps[encounterID] = append(m.snaps[encounterID], Snapshot{
		Seq:         m.seq,
		EncounterID: encounterID,
		Round:       state.Round,
		TurnIndex:   state.ActiveTurnIndex,
		State:       state.Clone(),
		CreatedAt:   time.Now().UTC(),
	})
	return m.seq, nil
}

// Latest implements SnapshotStore.
func (m *MemoryStore) Latest(_ context.Context, encounterID string) (Snapshot, error) {
	return m.fromEnd(encounterID, 1)
}

// Previous implements SnapshotStore.
func (m *MemoryStore) Previous(_ context.Context, encounterID string) (Snapshot, error) {
	return m.fromEnd(encounterID, 2)
}

func (m *MemoryStore) fromEnd(encounterID string, n int) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.snaps[encounterID]
	if len(list) < n {
		return Snapshot{}, ErrNoSnapshot
	}
	snap := list[len(list)-n]
	snap.State = snap.State.Clone()
	return snap, nil
}

// DeleteAfter implements SnapshotStore.
func (m *MemoryStore) DeleteAfter(_ context.Context, encounterID string, seq int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.snaps[encounterID]
	kept := list[:0]
	for _, s := range list {
		if s.Seq <= seq {
			kept = append(kept, s)
		}
	}
	m.snaps[encounterID] = kept
	return nil
}

// Delete implements SnapshotStore.
func (m *MemoryStore) Delete(_ context.Context, encounterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, encounterID)
	return nil
}

// Count returns how many snapshots encounterID has.
func (m *MemoryStore) Count(encounterID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snaps[encounterID])
}
