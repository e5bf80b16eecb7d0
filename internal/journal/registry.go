package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"shuttle/internal/device"
)

// SaveRegistry stores snap as the current registry state.
func (s *Store) SaveRegistry(ctx context.Context, snap device.Snapshot) error {
	if snap.Devices == nil {
		snap.Devices = []device.Device{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal registry snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO registry_state (id, snapshot_json, updated_at) VALUES (1, ?, ?)
         ON CONFLICT(id) DO UPDATE SET snapshot_json = excluded.snapshot_json, updated_at = excluded.updated_at`,
		string(data), s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("save registry snapshot: %w", err)
	}
	return nil
}

// LoadRegistry returns the stored snapshot. The boolean is false when none
// has been saved yet.
func (s *Store) LoadRegistry(ctx context.Context) (device.Snapshot, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot_json FROM registry_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return device.Snapshot{}, false, nil
	}
	if err != nil {
		return device.Snapshot{}, false, fmt.Errorf("load registry snapshot: %w", err)
	}
	var snap device.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return device.Snapshot{}, false, fmt.Errorf("decode registry snapshot: %w", err)
	}
	return snap, true, nil
}
