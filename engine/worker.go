package engine

import (
	"context"
	"time"

	"github.com/micromdm/nanointake/engine/storage"
	"github.com/micromdm/nanointake/log/logkeys"

	"github.com/micromdm/nanolib/log"
)

const DefaultDuration = time.Minute * 5
const DefaultSessionTTL = time.Hour * 24

// Worker expires idle sessions on an interval.
// It is only needed for storage backends without native key expiry.
type Worker struct {
	storage storage.SessionExpirer
	logger  log.Logger

	// duration is the interval at which the worker will wake up to
	// expire sessions.
	duration time.Duration

	// ttl is how long a session may go without any flow being written
	// before all of its flows are removed.
	ttl time.Duration

	now func() time.Time
}

type WorkerOption func(w *Worker)

func WithWorkerLogger(logger log.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithWorkerDuration configures the polling interval for the worker.
func WithWorkerDuration(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.duration = d
	}
}

// WithWorkerSessionTTL configures how long idle sessions are kept.
func WithWorkerSessionTTL(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.ttl = d
	}
}

func NewWorker(storage storage.SessionExpirer, opts ...WorkerOption) *Worker {
	w := &Worker{
		storage:  storage,
		logger:   log.NopLogger,
		duration: DefaultDuration,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RunOnce expires sessions once and logs errors.
func (w *Worker) RunOnce(ctx context.Context) error {
	ct, err := w.storage.ExpireSessions(ctx, w.now().Add(-w.ttl))
	if err != nil {
		return logAndError(err, w.logger, "expiring sessions")
	}
	if ct > 0 {
		w.logger.Debug(
			logkeys.Message, "expired sessions",
			logkeys.GenericCount, ct,
		)
	}
	return nil
}

// Run starts and runs the worker forever on an interval.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Debug(logkeys.Message, "starting worker", "duration", w.duration, "ttl", w.ttl)

	ticker := time.NewTicker(w.duration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
