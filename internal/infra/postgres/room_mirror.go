package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"quizroom-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// RoomMirror upserts room snapshots into the rooms table. Closed rooms are kept for
// audit with closed_at set rather than deleted; a later room reusing the code gets
// its own row.
type RoomMirror struct {
	pool *pgxpool.Pool
}

func NewRoomMirror(pool *pgxpool.Pool) *RoomMirror {
	return &RoomMirror{pool: pool}
}

func (m *RoomMirror) SaveRoom(ctx context.Context, snapshot domain.RoomSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", snapshot.Code, err)
	}
	_, err = m.pool.Exec(ctx, `
		INSERT INTO rooms (code, status, host_id, topic, difficulty, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) WHERE closed_at IS NULL DO UPDATE SET
			status = EXCLUDED.status,
			host_id = EXCLUDED.host_id,
			topic = EXCLUDED.topic,
			difficulty = EXCLUDED.difficulty,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		snapshot.Code, string(snapshot.Status), snapshot.HostID, snapshot.Topic, snapshot.Difficulty,
		data, snapshot.CreatedAt, snapshot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save room %s: %w", snapshot.Code, err)
	}
	return nil
}

func (m *RoomMirror) DeleteRoom(ctx context.Context, code string) error {
	_, err := m.pool.Exec(ctx, `UPDATE rooms SET closed_at = now() WHERE code = $1 AND closed_at IS NULL`, code)
	if err != nil {
		return fmt.Errorf("close room %s: %w", code, err)
	}
	return nil
}

// LoadRoom returns the last mirrored snapshot of the most recent room with code.
func (m *RoomMirror) LoadRoom(ctx context.Context, code string) (domain.RoomSnapshot, error) {
	var raw []byte
	err := m.pool.QueryRow(ctx, `SELECT data FROM rooms WHERE code=$1 ORDER BY id DESC LIMIT 1`, code).Scan(&raw)
	if err != nil {
		return domain.RoomSnapshot{}, fmt.Errorf("load room %s: %w", code, err)
	}
	var snapshot domain.RoomSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return domain.RoomSnapshot{}, fmt.Errorf("unmarshal room %s: %w", code, err)
	}
	return snapshot, nil
}
