package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

func newRoom(code string) *app.Room {
	return app.NewRoom(code, "host", domain.PlayerProfile{Name: "Host"}, time.Now())
}

func TestRoomStoreReservesCodes(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewRoomStore(client, time.Hour, func() string { return "abc123" })

	room, err := store.Create(newRoom)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.Code() != "ABC123" {
		t.Fatalf("expected normalized code, got %s", room.Code())
	}
	if !mr.Exists("room:code:ABC123") {
		t.Fatalf("expected code reservation in redis")
	}
	if ttl := mr.TTL("room:code:ABC123"); ttl != time.Hour {
		t.Fatalf("expected reservation ttl 1h, got %s", ttl)
	}

	store.Delete("abc123")
	if mr.Exists("room:code:ABC123") {
		t.Fatalf("expected reservation to be removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected no rooms, got %d", store.Len())
	}
}

func TestRoomStoreSkipsCodesReservedElsewhere(t *testing.T) {
	mr, client := newTestClient(t)
	if err := mr.Set("room:code:AAA111", "1"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	codes := []string{"AAA111", "BBB222"}
	store := NewRoomStore(client, time.Hour, func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	})

	room, err := store.Create(newRoom)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.Code() != "BBB222" {
		t.Fatalf("expected reserved code to be skipped, got %s", room.Code())
	}
}

func TestRoomStoreFallsBackToLocalWhenRedisIsDown(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewRoomStore(client, time.Hour, nil)
	mr.Close()

	room, err := store.Create(newRoom)
	if err != nil {
		t.Fatalf("create with redis down: %v", err)
	}
	if _, ok := store.Get(room.Code()); !ok {
		t.Fatalf("expected room to be stored locally")
	}
}

func TestRoomStoreBindRefreshesReservation(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewRoomStore(client, time.Minute, func() string { return "CCC333" })

	room, err := store.Create(newRoom)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	mr.FastForward(50 * time.Second)
	store.Bind("guest", room.Code())
	if ttl := mr.TTL("room:code:CCC333"); ttl != time.Minute {
		t.Fatalf("expected refreshed ttl, got %s", ttl)
	}
	if code, ok := store.RoomOf("guest"); !ok || code != "CCC333" {
		t.Fatalf("expected guest bound to CCC333, got %q", code)
	}

	store.Delete(room.Code())
	if _, ok := store.RoomOf("guest"); ok {
		t.Fatalf("expected guest unbound after delete")
	}
}

// stallingHook holds SET commands until release is closed.
type stallingHook struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (h *stallingHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *stallingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if name := cmd.Name(); name == "set" || name == "setnx" {
			h.once.Do(func() { close(h.entered) })
			<-h.release
		}
		return next(ctx, cmd)
	}
}

func (h *stallingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRoomStoreLookupsDoNotWaitOnReservation(t *testing.T) {
	_, client := newTestClient(t)
	codes := []string{"AAA111", "BBB222"}
	store := NewRoomStore(client, time.Hour, func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	})
	if _, err := store.Create(newRoom); err != nil {
		t.Fatalf("create: %v", err)
	}
	store.Bind("host", "AAA111")

	hook := &stallingHook{entered: make(chan struct{}), release: make(chan struct{})}
	client.AddHook(hook)

	created := make(chan error, 1)
	go func() {
		_, err := store.Create(newRoom)
		created <- err
	}()
	<-hook.entered

	looked := make(chan struct{})
	go func() {
		defer close(looked)
		if _, ok := store.Get("AAA111"); !ok {
			t.Errorf("expected existing room to be found")
		}
		if code, ok := store.RoomOf("host"); !ok || code != "AAA111" {
			t.Errorf("expected host bound to AAA111, got %q", code)
		}
		store.Unbind("nobody")
		_ = store.Len()
	}()
	select {
	case <-looked:
	case <-time.After(time.Second):
		close(hook.release)
		t.Fatalf("lookups blocked behind a pending code reservation")
	}

	close(hook.release)
	if err := <-created; err != nil {
		t.Fatalf("create: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected two rooms, got %d", store.Len())
	}
}
