package redis

import (
	"context"
	"sync"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RoomStore is a Redis-aware implementation of app.RoomStore.
// Notes:
//   - Rooms themselves stay in a local map; their mutexes and timers cannot leave the process.
//   - Each allocated code is reserved with SETNX so a code whose mirror entry is still
//     live in Redis is not handed out again after a restart.
//   - Redis errors degrade to local-only uniqueness.
//   - Redis is never called with mu held.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
	codes  app.CodeGenerator

	mu      sync.RWMutex
	rooms   map[string]*app.Room
	members map[string]string
}

func NewRoomStore(client *redis.Client, ttl time.Duration, codes app.CodeGenerator) *RoomStore {
	if codes == nil {
		codes = app.RandomCodes(app.DefaultCodeLength)
	}
	return &RoomStore{
		client:  client,
		ttl:     ttl,
		codes:   codes,
		rooms:   make(map[string]*app.Room),
		members: make(map[string]string),
	}
}

// createRounds bounds how often a reserved code can lose the local race before Create gives up.
const createRounds = 4

// Create reserves a code in Redis without holding the store lock, so lookups from
// other rooms are not stalled behind a slow Redis round trip.
func (s *RoomStore) Create(build func(code string) *app.Room) (*app.Room, error) {
	for round := 0; round < createRounds; round++ {
		code, ok := app.AllocateCode(s.codes, s.taken)
		if !ok {
			return nil, domain.ErrCodeSpaceExhausted
		}

		s.mu.Lock()
		if _, taken := s.rooms[code]; taken {
			// only reachable when Redis was down and another Create won the code
			s.mu.Unlock()
			continue
		}
		room := build(code)
		s.rooms[code] = room
		s.mu.Unlock()
		return room, nil
	}
	return nil, domain.ErrCodeSpaceExhausted
}

func (s *RoomStore) taken(code string) bool {
	s.mu.RLock()
	_, local := s.rooms[code]
	s.mu.RUnlock()
	if local {
		return true
	}
	reserved, err := s.client.SetNX(context.Background(), s.key(code), "1", s.ttl).Result()
	if err != nil {
		// best-effort: Redis unavailable, local map decides
		return false
	}
	return !reserved
}

func (s *RoomStore) Get(code string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[app.NormalizeCode(code)]
	return room, ok
}

func (s *RoomStore) Delete(code string) {
	code = app.NormalizeCode(code)
	s.mu.Lock()
	delete(s.rooms, code)
	for member, c := range s.members {
		if c == code {
			delete(s.members, member)
		}
	}
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(code)).Err()
}

// Bind also refreshes the code reservation so long-lived lobbies keep their code.
func (s *RoomStore) Bind(playerID, code string) {
	code = app.NormalizeCode(code)
	s.mu.Lock()
	s.members[playerID] = code
	s.mu.Unlock()
	if s.ttl > 0 {
		_ = s.client.Expire(context.Background(), s.key(code), s.ttl).Err()
	}
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

func (s *RoomStore) key(code string) string {
	return "room:code:" + code
}
