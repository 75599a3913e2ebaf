package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReportSaver persists one snapshot.
type ReportSaver interface {
	SaveReport(ctx context.Context, snapshot Snapshot) (string, error)
}

// Recorder persists snapshots in the background. Callers hand over finished
// snapshots and never wait on the database; failures are logged and dropped.
type Recorder struct {
	saver   ReportSaver
	logger  *zap.Logger
	timeout time.Duration
	queue   chan Snapshot
	group   *errgroup.Group

	mu     sync.RWMutex
	closed bool
}

// NewRecorder starts a recorder with room for size pending snapshots.
func NewRecorder(logger *zap.Logger, saver ReportSaver, size int) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size < 1 {
		size = 1
	}

	r := &Recorder{
		saver:   saver,
		logger:  logger,
		timeout: 10 * time.Second,
		queue:   make(chan Snapshot, size),
		group:   new(errgroup.Group),
	}
	r.group.Go(r.run)
	return r
}

// Submit queues snapshot and returns the identifier it will be stored under.
// It never blocks: when the queue is full or the recorder is closed the
// snapshot is dropped and ok is false.
func (r *Recorder) Submit(snapshot Snapshot) (id string, ok bool) {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logger.Warn("recorder closed, dropping report",
			zap.String("op", "store.Recorder.Submit"),
			zap.String("report", snapshot.ID),
		)
		return snapshot.ID, false
	}

	select {
	case r.queue <- snapshot:
		return snapshot.ID, true
	default:
		r.logger.Warn("recorder queue full, dropping report",
			zap.String("op", "store.Recorder.Submit"),
			zap.String("report", snapshot.ID),
			zap.Int("capacity", cap(r.queue)),
		)
		return snapshot.ID, false
	}
}

// Close stops accepting snapshots and waits for the queued ones to be written.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	return r.group.Wait()
}

func (r *Recorder) run() error {
	for snapshot := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		id, err := r.saver.SaveReport(ctx, snapshot)
		cancel()
		if err != nil {
			r.logger.Error("failed to record report",
				zap.String("op", "store.Recorder"),
				zap.String("report", snapshot.ID),
				zap.String("name", snapshot.Name),
				zap.Error(err),
			)
			continue
		}
		r.logger.Debug("recorded report",
			zap.String("op", "store.Recorder"),
			zap.String("report", id),
			zap.String("name", snapshot.Name),
		)
	}
	return nil
}
