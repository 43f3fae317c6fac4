package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quizroom-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RoomMirror keeps the latest snapshot of each room as JSON under room:{code}:snapshot.
// Snapshots expire after ttl so abandoned rooms do not linger.
type RoomMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomMirror(client *redis.Client, ttl time.Duration) *RoomMirror {
	return &RoomMirror{client: client, ttl: ttl}
}

func (m *RoomMirror) SaveRoom(ctx context.Context, snapshot domain.RoomSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", snapshot.Code, err)
	}
	if err := m.client.Set(ctx, m.key(snapshot.Code), data, m.ttl).Err(); err != nil {
		return fmt.Errorf("save room %s: %w", snapshot.Code, err)
	}
	return nil
}

func (m *RoomMirror) DeleteRoom(ctx context.Context, code string) error {
	if err := m.client.Del(ctx, m.key(code)).Err(); err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return nil
}

// LoadRoom reads a mirrored snapshot back, for audit tooling.
func (m *RoomMirror) LoadRoom(ctx context.Context, code string) (domain.RoomSnapshot, error) {
	var snapshot domain.RoomSnapshot
	data, err := m.client.Get(ctx, m.key(code)).Bytes()
	if err == redis.Nil {
		return snapshot, domain.ErrRoomNotFound
	}
	if err != nil {
		return snapshot, fmt.Errorf("load room %s: %w", code, err)
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return snapshot, fmt.Errorf("unmarshal room %s: %w", code, err)
	}
	return snapshot, nil
}

func (m *RoomMirror) key(code string) string {
	return "room:" + code + ":snapshot"
}
