package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"quizroom-service/internal/domain"

	"golang.org/x/sync/errgroup"
)

// DurableStore persists room snapshots for recovery and audit.
type DurableStore interface {
	SaveRoom(ctx context.Context, snapshot domain.RoomSnapshot) error
	DeleteRoom(ctx context.Context, code string) error
}

// NopMirror discards snapshots.
type NopMirror struct{}

func (NopMirror) Save(domain.RoomSnapshot) {}
func (NopMirror) Delete(string)            {}

// Fanout writes to every store concurrently and returns the first failure.
type Fanout []DurableStore

func (f Fanout) SaveRoom(ctx context.Context, snapshot domain.RoomSnapshot) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, store := range f {
		store := store
		g.Go(func() error { return store.SaveRoom(ctx, snapshot) })
	}
	return g.Wait()
}

func (f Fanout) DeleteRoom(ctx context.Context, code string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, store := range f {
		store := store
		g.Go(func() error { return store.DeleteRoom(ctx, code) })
	}
	return g.Wait()
}

type mirrorOp struct {
	code     string
	snapshot *domain.RoomSnapshot
}

// WriteBehind applies mirror writes on a background goroutine in the order they were
// queued. When the queue is full the write is dropped and logged; in-memory state wins.
type WriteBehind struct {
	store   DurableStore
	timeout time.Duration
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan mirrorOp
	done   chan struct{}
}

func NewWriteBehind(store DurableStore, buffer int, timeout time.Duration, log *slog.Logger) *WriteBehind {
	if buffer <= 0 {
		buffer = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &WriteBehind{
		store:   store,
		timeout: timeout,
		log:     log,
		queue:   make(chan mirrorOp, buffer),
		done:    make(chan struct{}),
	}
}

func (w *WriteBehind) Save(snapshot domain.RoomSnapshot) {
	w.enqueue(mirrorOp{code: snapshot.Code, snapshot: &snapshot})
}

func (w *WriteBehind) Delete(code string) {
	w.enqueue(mirrorOp{code: code})
}

func (w *WriteBehind) enqueue(op mirrorOp) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.queue <- op:
	default:
		w.log.Warn("mirror queue full, dropping write", "room", op.code)
	}
}

// Run drains the queue until Close is called, then flushes what is left.
func (w *WriteBehind) Run(ctx context.Context) {
	defer close(w.done)
	for op := range w.queue {
		w.apply(ctx, op)
	}
}

// Close stops accepting writes and waits for Run to flush the queue.
// Run must have been started.
func (w *WriteBehind) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *WriteBehind) apply(ctx context.Context, op mirrorOp) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()

	var err error
	if op.snapshot != nil {
		err = w.store.SaveRoom(ctx, *op.snapshot)
	} else {
		err = w.store.DeleteRoom(ctx, op.code)
	}
	if err != nil {
		w.log.Error("mirror write failed", "room", op.code, "error", err)
	}
}
