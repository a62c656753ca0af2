package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Config struct {
	MaxAttempts     int
	BackoffUnit     time.Duration
	SweepInterval   time.Duration
	DeliveryTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:     3,
		BackoffUnit:     5 * time.Second,
		SweepInterval:   30 * time.Second,
		DeliveryTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.BackoffUnit <= 0 {
		c.BackoffUnit = def.BackoffUnit
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	return c
}

// StepResult reports what a single drain step did.
type StepResult int

const (
	StepIdle StepResult = iota
	StepBusy
	StepDeferred
	StepDelivered
	StepRetryScheduled
	StepDropped
)

func (r StepResult) String() string {
	switch r {
	case StepIdle:
		return "idle"
	case StepBusy:
		return "busy"
	case StepDeferred:
		return "deferred"
	case StepDelivered:
		return "delivered"
	case StepRetryScheduled:
		return "retry-scheduled"
	case StepDropped:
		return "dropped"
	default:
		return fmt.Sprintf("StepResult(%d)", int(r))
	}
}

type JobStatus struct {
	ID            string                  `json:"id"`
	Kind          domain.NotificationKind `json:"kind"`
	OrderID       string                  `json:"order_id"`
	Attempts      int                     `json:"attempts"`
	NextAttemptAt time.Time               `json:"next_attempt_at"`
	CreatedAt     time.Time               `json:"created_at"`
}

type Status struct {
	Depth    int         `json:"depth"`
	Draining bool        `json:"draining"`
	Jobs     []JobStatus `json:"jobs"`
}

type Option func(*Queue)

// WithClock replaces time.Now for due-time decisions.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// WithManualDrain disables the background drain loop. Jobs are only
// processed through Step or Drain.
func WithManualDrain() Option {
	return func(q *Queue) { q.autoDrain = false }
}

func WithMetrics(m *metrics.BillingMetrics) Option {
	return func(q *Queue) { q.metrics = m }
}

// Queue is an in-process, at-least-once notification queue. Jobs live in
// memory only; a restart loses whatever is pending.
type Queue struct {
	cfg       Config
	deliverer Deliverer
	logger    *zap.Logger
	metrics   *metrics.BillingMetrics
	now       func() time.Time
	autoDrain bool

	mu         sync.Mutex
	jobs       []*domain.NotificationJob
	draining   bool
	generation uint64
	wake       *time.Timer
	baseCtx    context.Context
	cancel     context.CancelFunc
	stopped    bool

	wg sync.WaitGroup
}

func NewQueue(deliverer Deliverer, cfg Config, logger *zap.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &Queue{
		cfg:       cfg.withDefaults(),
		deliverer: deliverer,
		logger:    logger.Named("notification-queue"),
		now:       time.Now,
		autoDrain: true,
		baseCtx:   context.Background(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends a job due immediately and kicks the drain loop.
func (q *Queue) Enqueue(kind domain.NotificationKind, payload domain.OrderSnapshot) string {
	now := q.now()
	job := &domain.NotificationJob{
		ID:            uuid.NewString(),
		Kind:          kind,
		Payload:       payload,
		NextAttemptAt: now,
		CreatedAt:     now,
	}

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	depth := len(q.jobs)
	q.mu.Unlock()

	q.metrics.SetNotificationQueueDepth(depth)
	q.logger.Debug("job enqueued",
		zap.String("job_id", job.ID),
		zap.String("kind", string(kind)),
		zap.String("order_id", payload.OrderID),
		zap.Int("depth", depth),
	)

	q.trigger()
	return job.ID
}

// Start runs the periodic sweep until ctx is done or Stop is called.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.cancel != nil {
		q.mu.Unlock()
		return
	}
	q.baseCtx, q.cancel = context.WithCancel(ctx)
	q.stopped = false
	runCtx := q.baseCtx
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()
		ticker := time.NewTicker(q.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				q.trigger()
			}
		}
	}()

	q.logger.Info("notification queue started",
		zap.Duration("sweep_interval", q.cfg.SweepInterval),
		zap.Int("max_attempts", q.cfg.MaxAttempts),
	)
	q.trigger()
}

// Stop halts the sweep and wake timer and waits for an in-flight drain.
// Pending jobs stay in memory.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	if q.wake != nil {
		q.wake.Stop()
		q.wake = nil
	}
	cancel := q.cancel
	q.cancel = nil
	depth := len(q.jobs)
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	q.wg.Wait()
	q.logger.Info("notification queue stopped", zap.Int("pending", depth))
}

func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	st := Status{
		Depth:    len(q.jobs),
		Draining: q.draining,
		Jobs:     make([]JobStatus, 0, len(q.jobs)),
	}
	for _, j := range q.jobs {
		st.Jobs = append(st.Jobs, JobStatus{
			ID:            j.ID,
			Kind:          j.Kind,
			OrderID:       j.Payload.OrderID,
			Attempts:      j.Attempts,
			NextAttemptAt: j.NextAttemptAt,
			CreatedAt:     j.CreatedAt,
		})
	}
	return st
}

func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Clear drops every pending job and returns how many were dropped. A job
// being delivered right now is not re-queued if its attempt fails.
func (q *Queue) Clear() int {
	q.mu.Lock()
	n := len(q.jobs)
	q.jobs = nil
	q.generation++
	if q.wake != nil {
		q.wake.Stop()
		q.wake = nil
	}
	q.mu.Unlock()

	q.metrics.SetNotificationQueueDepth(0)
	q.logger.Warn("notification queue cleared", zap.Int("dropped", n))
	return n
}

// Step processes the head job once. It returns StepBusy when a drain loop
// already owns the queue.
func (q *Queue) Step(ctx context.Context) StepResult {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return StepBusy
	}
	q.draining = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()
	return q.step(ctx)
}

// Drain processes jobs synchronously until the queue is empty or a full
// rotation finds nothing due.
func (q *Queue) Drain(ctx context.Context) {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	q.drainLoop(ctx)
}

func (q *Queue) trigger() {
	if !q.autoDrain {
		return
	}

	q.mu.Lock()
	if q.draining || q.stopped || len(q.jobs) == 0 {
		q.mu.Unlock()
		return
	}
	q.draining = true
	ctx := q.baseCtx
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()
		q.drainLoop(ctx)
	}()
}

// drainLoop expects q.draining to be set and clears it on return. The exit
// decision is taken under the lock so an Enqueue racing with the exit is
// never stranded.
func (q *Queue) drainLoop(ctx context.Context) {
	deferredRun := 0
	for {
		res := q.step(ctx)
		if res == StepDeferred {
			deferredRun++
		} else {
			deferredRun = 0
		}

		q.mu.Lock()
		parked := res == StepDeferred && deferredRun >= len(q.jobs)
		if len(q.jobs) == 0 || ctx.Err() != nil || parked {
			if parked {
				q.armWakeLocked()
			}
			q.draining = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()
	}
}

func (q *Queue) armWakeLocked() {
	if !q.autoDrain || q.stopped || len(q.jobs) == 0 {
		return
	}
	earliest := q.jobs[0].NextAttemptAt
	for _, j := range q.jobs[1:] {
		if j.NextAttemptAt.Before(earliest) {
			earliest = j.NextAttemptAt
		}
	}
	wait := earliest.Sub(q.now())
	if wait < 0 {
		wait = 0
	}
	if q.wake != nil {
		q.wake.Stop()
	}
	q.wake = time.AfterFunc(wait, q.trigger)
}

func (q *Queue) step(ctx context.Context) StepResult {
	q.mu.Lock()
	if len(q.jobs) == 0 {
		q.mu.Unlock()
		return StepIdle
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	if job.NextAttemptAt.After(q.now()) {
		q.jobs = append(q.jobs, job)
		q.mu.Unlock()
		return StepDeferred
	}
	gen := q.generation
	q.mu.Unlock()

	log := q.logger.With(
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Kind)),
		zap.String("order_id", job.Payload.OrderID),
	)

	err := q.deliver(ctx, *job)
	if err == nil {
		q.metrics.RecordNotificationDelivery(string(job.Kind), "delivered")
		q.metrics.SetNotificationQueueDepth(q.Depth())
		log.Info("notification delivered", zap.Int("attempt", job.Attempts+1))
		return StepDelivered
	}

	// Shutdown interrupted the attempt; keep the job without charging it.
	if ctx.Err() != nil && !errors.Is(err, ErrPermanentFailure) {
		q.requeue(job, gen)
		return StepRetryScheduled
	}

	job.Attempts++
	if errors.Is(err, ErrPermanentFailure) || job.Attempts >= q.cfg.MaxAttempts {
		q.metrics.RecordNotificationDelivery(string(job.Kind), "dropped")
		q.metrics.SetNotificationQueueDepth(q.Depth())
		log.Error("notification permanently failed",
			zap.Int("attempts", job.Attempts),
			zap.Error(err),
		)
		return StepDropped
	}

	job.NextAttemptAt = q.now().Add(q.cfg.BackoffUnit * time.Duration(job.Attempts))
	q.requeue(job, gen)
	q.metrics.RecordNotificationDelivery(string(job.Kind), "retry")
	log.Warn("notification delivery failed, will retry",
		zap.Int("attempts", job.Attempts),
		zap.Time("next_attempt_at", job.NextAttemptAt),
		zap.Error(err),
	)
	return StepRetryScheduled
}

func (q *Queue) requeue(job *domain.NotificationJob, gen uint64) {
	q.mu.Lock()
	if gen == q.generation {
		q.jobs = append(q.jobs, job)
	}
	q.mu.Unlock()
}

func (q *Queue) deliver(ctx context.Context, job domain.NotificationJob) (err error) {
	if q.cfg.DeliveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.DeliveryTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("deliverer panic: %v", r)
		}
	}()
	return q.deliverer.Deliver(ctx, job)
}
