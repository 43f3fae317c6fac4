package app

import "time"

// Timer is a pending deferred call that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall time and deferred calls so rounds can be driven in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the real-time Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// armTimerLocked schedules the automatic end of the round. A room holds at most one timer.
func (s *GameService) armTimerLocked(room *Room) {
	s.disarmTimerLocked(room)
	room.timer = s.clock.AfterFunc(s.settings.RoundDuration, func() {
		s.expire(room)
	})
}

func (s *GameService) disarmTimerLocked(room *Room) {
	if room.timer == nil {
		return
	}
	room.timer.Stop()
	room.timer = nil
}

// expire is the timer callback. It goes through the same guarded transition as a manual end.
func (s *GameService) expire(room *Room) {
	room.mu.Lock()
	defer room.mu.Unlock()
	if s.finishLocked(room) {
		s.log.Info("round timed out", "room", room.code)
	}
}
