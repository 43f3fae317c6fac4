package app

import (
	"context"

	"quizroom-service/internal/domain"
)

// Submit records a player's first answer to a question and awards points if it is correct.
// Rejected submissions leave the room untouched and broadcast nothing.
func (s *GameService) Submit(_ context.Context, playerID, code string, questionIndex int, chosen string) (domain.ScoreUpdatePayload, error) {
	room, ok := s.rooms.Get(code)
	if !ok {
		return domain.ScoreUpdatePayload{}, domain.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed || room.status != domain.StatusPlaying {
		return domain.ScoreUpdatePayload{}, domain.ErrNotPlaying
	}
	// The timer may lag the deadline by a few milliseconds; late answers do not count.
	if !s.clock.Now().Before(room.endTime) {
		return domain.ScoreUpdatePayload{}, domain.ErrNotPlaying
	}
	player, _, ok := room.playerLocked(playerID)
	if !ok {
		return domain.ScoreUpdatePayload{}, domain.ErrNotMember
	}
	if questionIndex < 0 || questionIndex >= len(room.questions) {
		return domain.ScoreUpdatePayload{}, domain.ErrQuestionOutOfRange
	}
	if player.HasAnswered(questionIndex) {
		return domain.ScoreUpdatePayload{}, domain.ErrDuplicateAnswer
	}

	correct := chosen == room.questions[questionIndex].CorrectOption
	player.Answers = append(player.Answers, domain.AnswerRecord{
		QuestionIndex: questionIndex,
		ChosenOption:  chosen,
		Correct:       correct,
	})
	if correct {
		player.Score += s.settings.PointsPerCorrect
	}

	update := domain.ScoreUpdatePayload{
		PlayerID:      player.ID,
		PlayerName:    player.Name,
		Score:         player.Score,
		Correct:       correct,
		QuestionIndex: questionIndex,
	}
	s.broadcastLocked(room, domain.Event{Type: domain.EventScoreUpdate, Payload: update})
	s.mirrorLocked(room)
	return update, nil
}
