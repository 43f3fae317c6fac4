package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room code does not match an active room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a room already holds the maximum number of players.
	ErrRoomFull = errors.New("room is full")
	// ErrGameAlreadyStarted is returned when joining a room that is no longer waiting.
	ErrGameAlreadyStarted = errors.New("game already started")
	// ErrQuestionGenerationFailed indicates the question source could not produce a usable batch.
	ErrQuestionGenerationFailed = errors.New("failed to generate questions")
	// ErrUnauthorized is returned when a non-host attempts a host-only action.
	ErrUnauthorized = errors.New("only the host can do that")
	// ErrDuplicateAnswer is returned when a player already answered the question.
	ErrDuplicateAnswer = errors.New("question already answered")
	// ErrInvalidPlayer is returned when a player profile fails validation.
	ErrInvalidPlayer = errors.New("invalid player profile")
	// ErrInvalidRequest is returned for malformed request payloads.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAlreadyInRoom is returned when a connection tries to enter a second room.
	ErrAlreadyInRoom = errors.New("already in a room")
	// ErrNotPlaying is returned when an in-round action hits a room outside its round.
	ErrNotPlaying = errors.New("game is not in progress")
	// ErrNotMember is returned when the requester is not a player of the room.
	ErrNotMember = errors.New("player not in room")
	// ErrQuestionOutOfRange is returned for a question index outside the round.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrNoValidQuestions indicates a batch contained no usable questions.
	ErrNoValidQuestions = errors.New("no valid questions in batch")
	// ErrCodeSpaceExhausted is returned when no unused room code could be allocated.
	ErrCodeSpaceExhausted = errors.New("could not allocate a room code")
)

// publicErrors are the failures reported back to the requester.
var publicErrors = []error{
	ErrRoomNotFound,
	ErrRoomFull,
	ErrGameAlreadyStarted,
	ErrQuestionGenerationFailed,
	ErrInvalidPlayer,
	ErrInvalidRequest,
	ErrAlreadyInRoom,
	ErrCodeSpaceExhausted,
}

// PublicError returns the sentinel that should be shown to the requester for err.
// Wrapped causes are not exposed. ok is false for failures that are dropped silently.
func PublicError(err error) (public error, ok bool) {
	for _, target := range publicErrors {
		if errors.Is(err, target) {
			return target, true
		}
	}
	return nil, false
}

// Silent rejections. These never reach the client.
var (
	// ErrNotWaiting is returned when a start request hits a room past its lobby phase.
	ErrNotWaiting = errors.New("game is not waiting to start")
	// ErrGenerationInProgress is returned when a start request races an outstanding one.
	ErrGenerationInProgress = errors.New("question generation already in progress")
)
