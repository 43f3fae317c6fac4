package app

import (
	"context"
	"errors"

	"quizroom-service/internal/domain"
)

// Request is one inbound player action. The set of implementations is closed.
type Request interface {
	request()
}

type CreateRoom struct {
	Player domain.PlayerProfile
}

type JoinRoom struct {
	Code   string
	Player domain.PlayerProfile
}

type StartGame struct {
	Code       string
	Topic      string
	Difficulty string
}

type SubmitAnswer struct {
	Code          string
	QuestionIndex int
	Answer        string
}

type EndGame struct {
	Code string
}

// Disconnect is implied when a connection goes away.
type Disconnect struct{}

func (CreateRoom) request()   {}
func (JoinRoom) request()     {}
func (StartGame) request()    {}
func (SubmitAnswer) request() {}
func (EndGame) request()      {}
func (Disconnect) request()   {}

// Dispatch routes a request from connection playerID to the matching transition.
// Failures meant for the player are sent back to that connection only; the rest are
// logged and dropped. The returned error is informational.
func (s *GameService) Dispatch(ctx context.Context, playerID string, req Request) error {
	var (
		err    error
		silent bool
	)
	switch r := req.(type) {
	case CreateRoom:
		_, err = s.Create(ctx, playerID, r.Player)
	case JoinRoom:
		_, err = s.Join(ctx, playerID, NormalizeCode(r.Code), r.Player)
	case StartGame:
		err = s.Start(ctx, playerID, NormalizeCode(r.Code), r.Topic, r.Difficulty)
	case SubmitAnswer:
		_, err = s.Submit(ctx, playerID, NormalizeCode(r.Code), r.QuestionIndex, r.Answer)
		silent = true
	case EndGame:
		err = s.End(ctx, playerID, NormalizeCode(r.Code))
		silent = true
	case Disconnect:
		s.Disconnect(ctx, playerID)
	default:
		err = domain.ErrInvalidRequest
	}
	if err == nil {
		return nil
	}

	if public, ok := domain.PublicError(err); ok && !silent {
		s.sendTo(playerID, domain.ErrorEvent(public))
		return err
	}
	if errors.Is(err, domain.ErrDuplicateAnswer) {
		s.log.Debug("duplicate answer ignored", "player", playerID)
		return err
	}
	s.log.Debug("request ignored", "player", playerID, "error", err)
	return err
}
