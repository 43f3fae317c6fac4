package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"quizroom-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

// RoomStore owns every active room and the connection -> room index.
// It performs no business validation.
type RoomStore interface {
	// Create allocates a code no active room uses and stores the room built for it.
	Create(build func(code string) *Room) (*Room, error)
	Get(code string) (*Room, bool)
	Delete(code string)
	Bind(playerID, code string)
	Unbind(playerID string)
	RoomOf(playerID string) (string, bool)
	Len() int
}

// QuestionSource produces a batch of questions for a topic and difficulty.
type QuestionSource interface {
	Fetch(ctx context.Context, topic, difficulty string, count int) ([]domain.Question, error)
}

// Broadcaster delivers events to connections. Send must not block.
type Broadcaster interface {
	Send(recipients []string, event domain.Event)
}

// Mirror receives room snapshots after each mutation. It must not block.
type Mirror interface {
	Save(snapshot domain.RoomSnapshot)
	Delete(code string)
}

// Settings are the fixed rules of a round.
type Settings struct {
	MaxPlayers        int
	RoundDuration     time.Duration
	PointsPerCorrect  int
	QuestionCount     int
	GenerationTimeout time.Duration
}

// DefaultSettings returns four players, a fifteen minute round, ten points per correct
// answer and twenty questions.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:        4,
		RoundDuration:     15 * time.Minute,
		PointsPerCorrect:  10,
		QuestionCount:     20,
		GenerationTimeout: 60 * time.Second,
	}
}

// GameService is the session manager: lifecycle, arbitration, timers and disconnects.
type GameService struct {
	rooms     RoomStore
	questions QuestionSource
	events    Broadcaster
	mirror    Mirror
	clock     Clock
	settings  Settings
	validate  *validator.Validate
	log       *slog.Logger
}

// Option customises a GameService.
type Option func(*GameService)

func WithClock(clock Clock) Option {
	return func(s *GameService) { s.clock = clock }
}

func WithMirror(mirror Mirror) Option {
	return func(s *GameService) { s.mirror = mirror }
}

func WithSettings(settings Settings) Option {
	return func(s *GameService) { s.settings = settings }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *GameService) { s.log = log }
}

func NewGameService(rooms RoomStore, questions QuestionSource, events Broadcaster, opts ...Option) *GameService {
	s := &GameService{
		rooms:     rooms,
		questions: questions,
		events:    events,
		mirror:    NopMirror{},
		clock:     SystemClock{},
		settings:  DefaultSettings(),
		validate:  validator.New(),
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ActiveRooms reports how many rooms are currently held in memory.
func (s *GameService) ActiveRooms() int {
	return s.rooms.Len()
}

// broadcastLocked sends an event to every current member of the room.
// Called with room.mu held so members observe events in mutation order.
func (s *GameService) broadcastLocked(room *Room, event domain.Event) {
	s.events.Send(room.memberIDsLocked(), event)
}

func (s *GameService) sendTo(playerID string, event domain.Event) {
	s.events.Send([]string{playerID}, event)
}

func (s *GameService) mirrorLocked(room *Room) {
	s.mirror.Save(room.snapshotLocked(s.clock.Now()))
}
