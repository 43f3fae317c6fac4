package app

import (
	"context"

	"quizroom-service/internal/domain"
)

// Disconnect removes a departing connection from its room. An emptied room is deleted
// along with its timer; otherwise the longest-standing remaining player inherits the host
// role if needed. It never fails.
func (s *GameService) Disconnect(_ context.Context, playerID string) {
	code, ok := s.rooms.RoomOf(playerID)
	if !ok {
		return
	}
	room, ok := s.rooms.Get(code)
	if !ok {
		s.rooms.Unbind(playerID)
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	s.rooms.Unbind(playerID)
	player, idx, ok := room.playerLocked(playerID)
	if room.closed || !ok {
		return
	}
	room.players = append(room.players[:idx], room.players[idx+1:]...)
	if room.status == domain.StatusPlaying {
		room.departed = append(room.departed, player)
	}

	if len(room.players) == 0 {
		room.closed = true
		s.disarmTimerLocked(room)
		s.rooms.Delete(room.code)
		s.mirror.Delete(room.code)
		s.log.Info("room closed", "room", room.code, "status", room.status)
		return
	}

	if room.hostID == playerID {
		room.hostID = room.players[0].ID
		s.log.Info("host migrated", "room", room.code, "from", playerID, "to", room.hostID)
	}

	s.broadcastLocked(room, domain.Event{Type: domain.EventPlayerLeft, Payload: domain.RoomPayload{Room: room.viewLocked()}})
	s.mirrorLocked(room)
	s.log.Info("player left", "room", room.code, "player", playerID, "players", len(room.players))
}
