package app

import (
	"sort"
	"sync"
	"time"

	"quizroom-service/internal/domain"

	"github.com/samber/lo"
)

// Room is the authoritative in-memory state of one quiz session.
// Every field is guarded by mu; all mutation happens inside GameService.
type Room struct {
	mu sync.Mutex

	code       string
	hostID     string
	status     domain.RoomStatus
	topic      string
	difficulty string
	players    []*domain.Player
	departed   []*domain.Player
	questions  []domain.Question
	nextSeq    int
	createdAt  time.Time
	startTime  time.Time
	endTime    time.Time
	finishedAt time.Time

	// generating is set while a start request waits on the question source.
	generating bool
	// closed is set once the room has been removed from the store.
	closed bool
	// timer ends the round; it lives and dies with the room.
	timer Timer
}

// NewRoom builds a waiting room whose only player is the host.
func NewRoom(code, hostID string, profile domain.PlayerProfile, now time.Time) *Room {
	r := &Room{
		code:      code,
		hostID:    hostID,
		status:    domain.StatusWaiting,
		createdAt: now,
	}
	r.addPlayerLocked(hostID, profile, now)
	return r
}

// Code returns the room's immutable code.
func (r *Room) Code() string {
	return r.code
}

// Status returns the current lifecycle phase.
func (r *Room) Status() domain.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// HostID returns the current host's connection id.
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// PlayerIDs returns member ids in join order.
func (r *Room) PlayerIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.memberIDsLocked()
}

// IsEmpty reports whether the room has no players left.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) == 0
}

// Snapshot returns a detached copy for the durable mirror.
func (r *Room) Snapshot() domain.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(r.createdAt)
}

func (r *Room) addPlayerLocked(id string, profile domain.PlayerProfile, now time.Time) *domain.Player {
	p := domain.NewPlayer(id, profile, r.nextSeq, now)
	r.nextSeq++
	r.players = append(r.players, p)
	return p
}

func (r *Room) playerLocked(id string) (*domain.Player, int, bool) {
	return lo.FindIndexOf(r.players, func(p *domain.Player) bool { return p.ID == id })
}

func (r *Room) memberIDsLocked() []string {
	return lo.Map(r.players, func(p *domain.Player, _ int) string { return p.ID })
}

func (r *Room) viewLocked() domain.RoomView {
	view := domain.RoomView{
		Code:           r.code,
		HostID:         r.hostID,
		Status:         r.status,
		Topic:          r.topic,
		Difficulty:     r.difficulty,
		TotalQuestions: len(r.questions),
		CreatedAt:      r.createdAt,
		StartTime:      timePtr(r.startTime),
		EndTime:        timePtr(r.endTime),
	}
	view.Players = lo.Map(r.players, func(p *domain.Player, _ int) domain.PlayerView {
		return domain.PlayerView{
			ID:          p.ID,
			Name:        p.Name,
			Avatar:      p.Avatar,
			AvatarColor: p.AvatarColor,
			Score:       p.Score,
			Answered:    len(p.Answers),
			IsHost:      p.ID == r.hostID,
		}
	})
	return view
}

func (r *Room) snapshotLocked(now time.Time) domain.RoomSnapshot {
	clone := func(p *domain.Player, _ int) domain.Player { return p.Clone() }
	return domain.RoomSnapshot{
		Code:       r.code,
		HostID:     r.hostID,
		Status:     r.status,
		Topic:      r.topic,
		Difficulty: r.difficulty,
		Players:    lo.Map(r.players, clone),
		Departed:   lo.Map(r.departed, clone),
		Questions:  append([]domain.Question(nil), r.questions...),
		StartTime:  timePtr(r.startTime),
		EndTime:    timePtr(r.endTime),
		FinishedAt: timePtr(r.finishedAt),
		CreatedAt:  r.createdAt,
		UpdatedAt:  now,
	}
}

// standingsLocked ranks current and departed players by score, highest first.
// Equal scores keep join order, so the earliest joiner wins a tie.
func (r *Room) standingsLocked() []domain.Standing {
	all := make([]domain.Standing, 0, len(r.players)+len(r.departed))
	seqs := make(map[string]int, cap(all))
	add := func(p *domain.Player, left bool) {
		all = append(all, domain.Standing{
			ID:          p.ID,
			Name:        p.Name,
			Avatar:      p.Avatar,
			AvatarColor: p.AvatarColor,
			Score:       p.Score,
			Answers:     append([]domain.AnswerRecord{}, p.Answers...),
			Left:        left,
		})
		seqs[p.ID] = p.Seq
	}
	for _, p := range r.players {
		add(p, false)
	}
	for _, p := range r.departed {
		add(p, true)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return seqs[all[i].ID] < seqs[all[j].ID]
	})
	for i := range all {
		all[i].Rank = i + 1
	}
	return all
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
