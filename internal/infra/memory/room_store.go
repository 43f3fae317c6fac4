package memory

import (
	"sync"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
)

// RoomStore is an in-memory implementation of app.RoomStore.
type RoomStore struct {
	codes app.CodeGenerator

	mu      sync.RWMutex
	rooms   map[string]*app.Room
	members map[string]string
}

func NewRoomStore(codes app.CodeGenerator) *RoomStore {
	if codes == nil {
		codes = app.RandomCodes(app.DefaultCodeLength)
	}
	return &RoomStore{
		codes:   codes,
		rooms:   make(map[string]*app.Room),
		members: make(map[string]string),
	}
}

func (s *RoomStore) Create(build func(code string) *app.Room) (*app.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := app.AllocateCode(s.codes, func(code string) bool {
		_, taken := s.rooms[code]
		return taken
	})
	if !ok {
		return nil, domain.ErrCodeSpaceExhausted
	}
	room := build(code)
	s.rooms[code] = room
	return room, nil
}

func (s *RoomStore) Get(code string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[app.NormalizeCode(code)]
	return room, ok
}

func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = app.NormalizeCode(code)
	delete(s.rooms, code)
	for member, c := range s.members {
		if c == code {
			delete(s.members, member)
		}
	}
}

func (s *RoomStore) Bind(playerID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[playerID] = app.NormalizeCode(code)
}

func (s *RoomStore) Unbind(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, playerID)
}

func (s *RoomStore) RoomOf(playerID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.members[playerID]
	return code, ok
}

func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
