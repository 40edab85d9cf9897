package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
)

// SnapshotRepository stores encounter states as JSONB rows. It implements
// encounter.SnapshotStore.
type SnapshotRepository struct {
	db *pgxpool.Pool
}

// NewSnapshotRepository creates a SnapshotRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool and the
// encounter_snapshots migration must have been applied.
func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save inserts state as the newest snapshot of encounterID.
//
// Postcondition: Returns the new row's sequence number.
func (r *SnapshotRepository) Save(ctx context.Context, encounterID string, state combat.State) (int64, error) {
	doc, err := json.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("encoding state: %w", err)
	}
	var seq int64
	err = r.db.QueryRow(ctx,
		`INSERT INTO encounter_snapshots (encounter_id, round, turn_index, state)
		 VALUES ($1, $2, $3, $4)
		 RETURNING seq`,
		encounterID, state.Round, state.ActiveTurnIndex, doc,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("inserting snapshot: %w", err)
	}
	return seq, nil
}

// Latest returns the newest snapshot of encounterID.
//
// Postcondition: Returns encounter.ErrNoSnapshot when none exists.
func (r *SnapshotRepository) Latest(ctx context.Context, encounterID string) (encounter.Snapshot, error) {
	return r.nth(ctx, encounterID, 0)
}

// Previous returns the snapshot immediately before the newest.
//
// Postcondition: Returns encounter.ErrNoSnapshot when fewer than two exist.
func (r *SnapshotRepository) Previous(ctx context.Context, encounterID string) (encounter.Snapshot, error) {
	return r.nth(ctx, encounterID, 1)
}

func (r *SnapshotRepository) nth(ctx context.Context, encounterID string, offset int) (encounter.Snapshot, error) {
	var (
		snap encounter.Snapshot
		doc  []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT seq, encounter_id, round, turn_index, state, created_at
		 FROM encounter_snapshots
		 WHERE encounter_id = $1
		 ORDER BY seq DESC
		 LIMIT 1 OFFSET $2`,
		encounterID, offset,
	).Scan(&snap.Seq, &snap.EncounterID, &snap.Round, &snap.TurnIndex, &doc, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return encounter.Snapshot{}, encounter.ErrNoSnapshot
	}
	if err != nil {
		return encounter.Snapshot{}, fmt.Errorf("querying snapshot: %w", err)
	}
	if err := json.Unmarshal(doc, &snap.State); err != nil {
		return encounter.Snapshot{}, fmt.Errorf("decoding snapshot %d: %w", snap.Seq, err)
	}
	return snap, nil
}

// DeleteAfter removes every snapshot of encounterID newer than seq.
func (r *SnapshotRepository) DeleteAfter(ctx context.Context, encounterID string, seq int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM encounter_snapshots WHERE encounter_id = $1 AND seq > $2`,
		encounterID, seq,
	)
	if err != nil {
		return fmt.Errorf("deleting snapshots after %d: %w", seq, err)
	}
	return nil
}

// Delete removes every snapshot of encounterID.
func (r *SnapshotRepository) Delete(ctx context.Context, encounterID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM encounter_snapshots WHERE encounter_id = $1`, encounterID); err != nil {
		return fmt.Errorf("deleting snapshots: %w", err)
	}
	return nil
}

// Count returns how many snapshots encounterID has.
func (r *SnapshotRepository) Count(ctx context.Context, encounterID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM encounter_snapshots WHERE encounter_id = $1`,
		encounterID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting snapshots: %w", err)
	}
	return n, nil
}
