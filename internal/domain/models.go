package domain

import "time"

// RoomStatus is the lifecycle phase of a room. It only moves forward.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

// Difficulty levels accepted by the question source.
const (
	DifficultySimple = "simple"
	DifficultyHard   = "hard"
)

// PlayerProfile is the display information a connection supplies on create/join.
type PlayerProfile struct {
	Name        string `json:"name" validate:"required,max=32"`
	Avatar      string `json:"avatar" validate:"max=16"`
	AvatarColor string `json:"avatarColor" validate:"max=16"`
}

// Player is one participant of a room. Display fields never change after join.
type Player struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Avatar      string         `json:"avatar"`
	AvatarColor string         `json:"avatarColor"`
	Score       int            `json:"score"`
	Answers     []AnswerRecord `json:"answers"`
	JoinedAt    time.Time      `json:"joinedAt"`
	// Seq is the join position within the room and breaks ranking ties.
	Seq int `json:"seq"`
}

// NewPlayer builds a fresh player for a connection.
func NewPlayer(id string, profile PlayerProfile, seq int, joinedAt time.Time) *Player {
	return &Player{
		ID:          id,
		Name:        profile.Name,
		Avatar:      profile.Avatar,
		AvatarColor: profile.AvatarColor,
		Answers:     []AnswerRecord{},
		JoinedAt:    joinedAt,
		Seq:         seq,
	}
}

// HasAnswered reports whether the player already holds a record for the question.
func (p *Player) HasAnswered(questionIndex int) bool {
	for _, a := range p.Answers {
		if a.QuestionIndex == questionIndex {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand outside the room lock.
func (p *Player) Clone() Player {
	cp := *p
	cp.Answers = append([]AnswerRecord(nil), p.Answers...)
	return cp
}

// AnswerRecord is the immutable outcome of one submission.
type AnswerRecord struct {
	QuestionIndex int    `json:"questionIndex"`
	ChosenOption  string `json:"answer"`
	Correct       bool   `json:"correct"`
}

// RoomSnapshot is a detached copy of a room for the durable mirror.
// It includes correct answers and must never be sent to clients.
type RoomSnapshot struct {
	Code       string     `json:"roomCode"`
	HostID     string     `json:"hostId"`
	Status     RoomStatus `json:"status"`
	Topic      string     `json:"topic,omitempty"`
	Difficulty string     `json:"difficulty,omitempty"`
	Players    []Player   `json:"players"`
	Departed   []Player   `json:"departed,omitempty"`
	Questions  []Question `json:"questions"`
	StartTime  *time.Time `json:"startTime,omitempty"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// PlayerView is the client-facing form of a player. Chosen options stay hidden.
type PlayerView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	AvatarColor string `json:"avatarColor"`
	Score       int    `json:"score"`
	Answered    int    `json:"answered"`
	IsHost      bool   `json:"isHost"`
}

// RoomView is the client-facing form of a room.
type RoomView struct {
	Code           string       `json:"roomCode"`
	HostID         string       `json:"hostId"`
	Status         RoomStatus   `json:"status"`
	Topic          string       `json:"topic,omitempty"`
	Difficulty     string       `json:"difficulty,omitempty"`
	Players        []PlayerView `json:"players"`
	TotalQuestions int          `json:"totalQuestions"`
	StartTime      *time.Time   `json:"startTime,omitempty"`
	EndTime        *time.Time   `json:"endTime,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// Standing is one row of the final ranking, including the answer history.
type Standing struct {
	Rank        int            `json:"rank"`
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Avatar      string         `json:"avatar"`
	AvatarColor string         `json:"avatarColor"`
	Score       int            `json:"score"`
	Answers     []AnswerRecord `json:"answers"`
	// Left marks players who disconnected during the round.
	Left bool `json:"left,omitempty"`
}
