package domain

import "time"

// EventType names an outbound message.
type EventType string

const (
	EventConnected           EventType = "connected"
	EventRoomCreated         EventType = "roomCreated"
	EventPlayerJoined        EventType = "playerJoined"
	EventPlayerLeft          EventType = "playerLeft"
	EventGeneratingQuestions EventType = "generatingQuestions"
	EventGameStarted         EventType = "gameStarted"
	EventScoreUpdate         EventType = "scoreUpdate"
	EventGameEnded           EventType = "gameEnded"
	EventError               EventType = "error"
)

// Event is an outbound message addressed to one or more connections.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
}

type RoomCreatedPayload struct {
	Code string   `json:"roomCode"`
	Room RoomView `json:"room"`
}

type RoomPayload struct {
	Room RoomView `json:"room"`
}

type GeneratingPayload struct {
	Active bool `json:"active"`
}

type GameStartedPayload struct {
	Questions      []RedactedQuestion `json:"questions"`
	StartTime      time.Time          `json:"startTime"`
	EndTime        time.Time          `json:"endTime"`
	TotalQuestions int                `json:"totalQuestions"`
}

// ScoreUpdatePayload deliberately omits the chosen option.
type ScoreUpdatePayload struct {
	PlayerID      string `json:"playerId"`
	PlayerName    string `json:"playerName"`
	Score         int    `json:"score"`
	Correct       bool   `json:"correct"`
	QuestionIndex int    `json:"questionIndex"`
}

type GameEndedPayload struct {
	Winner      Standing   `json:"winner"`
	FinalScores []Standing `json:"finalScores"`
	Questions   []Question `json:"questions"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// ErrorEvent wraps an error for the requester.
func ErrorEvent(err error) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: err.Error()}}
}
