package memory

import (
	"testing"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
)

func newRoom(code string) *app.Room {
	return app.NewRoom(code, "host", domain.PlayerProfile{Name: "Host"}, time.Now())
}

func TestRoomStoreCreateAndLookup(t *testing.T) {
	store := NewRoomStore(func() string { return "abc123" })

	room, err := store.Create(newRoom)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.Code() != "ABC123" {
		t.Fatalf("expected normalized code, got %s", room.Code())
	}
	if got, ok := store.Get("abc123"); !ok || got != room {
		t.Fatalf("expected case-insensitive lookup")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 room, got %d", store.Len())
	}

	// the only candidate code is taken now
	if _, err := store.Create(newRoom); err != domain.ErrCodeSpaceExhausted {
		t.Fatalf("expected ErrCodeSpaceExhausted, got %v", err)
	}
}

func TestRoomStoreDeleteClearsMembers(t *testing.T) {
	store := NewRoomStore(nil)
	room, err := store.Create(newRoom)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	store.Bind("host", room.Code())
	store.Bind("guest", room.Code())

	if code, ok := store.RoomOf("guest"); !ok || code != room.Code() {
		t.Fatalf("expected guest bound to %s, got %q", room.Code(), code)
	}

	store.Unbind("guest")
	if _, ok := store.RoomOf("guest"); ok {
		t.Fatalf("expected guest unbound")
	}

	store.Delete(room.Code())
	if _, ok := store.Get(room.Code()); ok {
		t.Fatalf("expected room deleted")
	}
	if _, ok := store.RoomOf("host"); ok {
		t.Fatalf("expected members of deleted room unbound")
	}
}
