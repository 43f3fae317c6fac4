package app

import (
	"context"
	"fmt"
	"strings"

	"quizroom-service/internal/domain"
)

const maxTopicLength = 100

// Create opens a new waiting room with the requester as host.
func (s *GameService) Create(_ context.Context, playerID string, profile domain.PlayerProfile) (domain.RoomView, error) {
	if err := s.checkNewMember(playerID, profile); err != nil {
		return domain.RoomView{}, err
	}

	now := s.clock.Now()
	room, err := s.rooms.Create(func(code string) *Room {
		return NewRoom(code, playerID, profile, now)
	})
	if err != nil {
		return domain.RoomView{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	s.rooms.Bind(playerID, room.code)
	view := room.viewLocked()
	s.sendTo(playerID, domain.Event{
		Type:    domain.EventRoomCreated,
		Payload: domain.RoomCreatedPayload{Code: room.code, Room: view},
	})
	s.mirrorLocked(room)
	s.log.Info("room created", "room", room.code, "host", playerID)
	return view, nil
}

// Join adds the requester to a waiting room that still has a free seat.
func (s *GameService) Join(_ context.Context, playerID, code string, profile domain.PlayerProfile) (domain.RoomView, error) {
	if err := s.checkNewMember(playerID, profile); err != nil {
		return domain.RoomView{}, err
	}

	room, ok := s.rooms.Get(code)
	if !ok {
		return domain.RoomView{}, domain.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return domain.RoomView{}, domain.ErrRoomNotFound
	}
	if room.status != domain.StatusWaiting {
		return domain.RoomView{}, domain.ErrGameAlreadyStarted
	}
	if len(room.players) >= s.settings.MaxPlayers {
		return domain.RoomView{}, domain.ErrRoomFull
	}

	room.addPlayerLocked(playerID, profile, s.clock.Now())
	s.rooms.Bind(playerID, room.code)

	view := room.viewLocked()
	s.broadcastLocked(room, domain.Event{Type: domain.EventPlayerJoined, Payload: domain.RoomPayload{Room: view}})
	s.mirrorLocked(room)
	s.log.Info("player joined", "room", room.code, "player", playerID, "players", len(room.players))
	return view, nil
}

// Start asks the question source for a batch and opens the round.
// Only the host of a waiting room may start it; the question source is called without
// holding the room lock while the generating flag turns away concurrent starts.
func (s *GameService) Start(ctx context.Context, playerID, code, topic, difficulty string) error {
	room, ok := s.rooms.Get(code)
	if !ok {
		return domain.ErrUnauthorized
	}

	topic = strings.TrimSpace(topic)
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if difficulty == "" {
		difficulty = domain.DifficultySimple
	}

	room.mu.Lock()
	switch {
	case room.closed || room.hostID != playerID:
		room.mu.Unlock()
		return domain.ErrUnauthorized
	case room.status != domain.StatusWaiting:
		room.mu.Unlock()
		return domain.ErrNotWaiting
	case room.generating:
		room.mu.Unlock()
		return domain.ErrGenerationInProgress
	}
	if err := validateRound(topic, difficulty); err != nil {
		room.mu.Unlock()
		return err
	}
	room.generating = true
	s.broadcastLocked(room, domain.Event{Type: domain.EventGeneratingQuestions, Payload: domain.GeneratingPayload{Active: true}})
	room.mu.Unlock()

	s.log.Info("generating questions", "room", room.code, "topic", topic, "difficulty", difficulty)
	questions, fetchErr := s.fetchQuestions(ctx, topic, difficulty)

	room.mu.Lock()
	defer room.mu.Unlock()
	room.generating = false

	if room.closed {
		return nil
	}
	if fetchErr != nil {
		s.broadcastLocked(room, domain.Event{Type: domain.EventGeneratingQuestions, Payload: domain.GeneratingPayload{Active: false}})
		s.log.Warn("question generation failed", "room", room.code, "error", fetchErr)
		return fmt.Errorf("start room %s: %w: %w", room.code, domain.ErrQuestionGenerationFailed, fetchErr)
	}

	now := s.clock.Now()
	room.topic = topic
	room.difficulty = difficulty
	room.questions = questions
	room.startTime = now
	room.endTime = now.Add(s.settings.RoundDuration)
	room.status = domain.StatusPlaying
	s.armTimerLocked(room)

	s.broadcastLocked(room, domain.Event{
		Type: domain.EventGameStarted,
		Payload: domain.GameStartedPayload{
			Questions:      domain.RedactAll(questions),
			StartTime:      room.startTime,
			EndTime:        room.endTime,
			TotalQuestions: len(questions),
		},
	})
	s.mirrorLocked(room)
	s.log.Info("round started", "room", room.code, "questions", len(questions), "endTime", room.endTime)
	return nil
}

// End closes the round early on behalf of the host.
func (s *GameService) End(_ context.Context, playerID, code string) error {
	room, ok := s.rooms.Get(code)
	if !ok {
		return domain.ErrUnauthorized
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed || room.hostID != playerID {
		return domain.ErrUnauthorized
	}
	if room.status == domain.StatusWaiting {
		return domain.ErrNotPlaying
	}
	if s.finishLocked(room) {
		s.log.Info("round ended by host", "room", room.code, "host", playerID)
	}
	return nil
}

// finishLocked moves a playing room to finished and publishes the results.
// It reports false when the room was already finished, which makes both end paths idempotent.
func (s *GameService) finishLocked(room *Room) bool {
	if room.closed || room.status != domain.StatusPlaying {
		return false
	}
	room.status = domain.StatusFinished
	room.finishedAt = s.clock.Now()
	s.disarmTimerLocked(room)

	standings := room.standingsLocked()
	s.broadcastLocked(room, domain.Event{
		Type: domain.EventGameEnded,
		Payload: domain.GameEndedPayload{
			Winner:      standings[0],
			FinalScores: standings,
			Questions:   append([]domain.Question(nil), room.questions...),
		},
	})
	s.mirrorLocked(room)
	return true
}

func (s *GameService) fetchQuestions(ctx context.Context, topic, difficulty string) ([]domain.Question, error) {
	// The round must not depend on the requester's connection staying open.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.GenerationTimeout)
	defer cancel()

	batch, err := s.questions.Fetch(fetchCtx, topic, difficulty, s.settings.QuestionCount)
	if err != nil {
		return nil, err
	}
	return domain.ValidateBatch(batch, s.settings.QuestionCount)
}

func (s *GameService) checkNewMember(playerID string, profile domain.PlayerProfile) error {
	if err := s.validate.Struct(profile); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPlayer, err)
	}
	if strings.TrimSpace(profile.Name) == "" {
		return domain.ErrInvalidPlayer
	}
	if code, ok := s.rooms.RoomOf(playerID); ok {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyInRoom, code)
	}
	return nil
}

func validateRound(topic, difficulty string) error {
	if topic == "" || len(topic) > maxTopicLength {
		return fmt.Errorf("%w: topic must be 1-%d characters", domain.ErrInvalidRequest, maxTopicLength)
	}
	if difficulty != domain.DifficultySimple && difficulty != domain.DifficultyHard {
		return fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidRequest, difficulty)
	}
	return nil
}
