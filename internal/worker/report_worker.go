package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"wanderbook/internal/metrics"
	"wanderbook/internal/models"

	"github.com/redis/go-redis/v9"
)

// ReportTask describes one report regeneration request. A zero Start/End
// means the exporter's default window.
type ReportTask struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	RequestedAt time.Time `json:"requested_at"`
}

// Exporter renders the bookings report and returns the produced file path.
type Exporter interface {
	ExportBookings(ctx context.Context, start, end time.Time) (string, error)
}

// ReportWorker regenerates booking reports in the background. Tasks go
// through redis when available so a restart does not lose queued requests;
// otherwise an in-memory channel serves as fallback.
type ReportWorker struct {
	exporter      Exporter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan ReportTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	logger        *log.Logger
}

// NewReportWorker builds a worker with sane defaults.
func NewReportWorker(exporter Exporter, redisClient *redis.Client, retry RetryPolicy, logger *log.Logger) *ReportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if logger == nil {
		logger = log.Default()
	}

	return &ReportWorker{
		exporter:      exporter,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan ReportTask, models.WorkerQueueSize),
		redisQueueKey: "reports:queue",
		deadLetterKey: "reports:deadletter",
		pollInterval:  2 * time.Second,
		logger:        logger,
	}
}

// EnqueueReport schedules a regeneration via redis or the in-memory queue.
func (w *ReportWorker) EnqueueReport(ctx context.Context, start, end time.Time) error {
	task := ReportTask{Start: start, End: end, RequestedAt: time.Now()}

	// Try redis first for durability.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Printf("report_worker: redis push failed, fallback to memory queue: %v", err)
		} else {
			return nil
		}
	}

	// Fallback to in-memory queue if redis missing or failed. Reports are
	// idempotent snapshots, so dropping one request when full is harmless.
	select {
	case w.queue <- task:
	default:
		w.logger.Printf("report_worker: in-memory queue full, task dropped")
	}

	return nil
}

// Start launches main loop; stops when ctx is done.
func (w *ReportWorker) Start(ctx context.Context) {
	w.logger.Printf("report_worker: started")
	defer w.logger.Printf("report_worker: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, t)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.pollInterval):
		}
	}
}

func (w *ReportWorker) tryLocalQueue() (ReportTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return ReportTask{}, false
	}
}

func (w *ReportWorker) tryRedis(ctx context.Context) (ReportTask, bool) {
	if w.redis == nil {
		return ReportTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return ReportTask{}, false
		}
		w.logger.Printf("report_worker: redis BRPOP error: %v", err)
		return ReportTask{}, false
	}
	if len(res) != 2 {
		return ReportTask{}, false
	}
	var task ReportTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Printf("report_worker: decode redis task: %v", err)
		return ReportTask{}, false
	}
	return task, true
}

func (w *ReportWorker) processTask(ctx context.Context, task ReportTask) {
	var lastErr error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		path, err := w.exporter.ExportBookings(ctx, task.Start, task.End)
		if err == nil {
			metrics.IncReportExport("ok")
			w.logger.Printf("report_worker: report written to %s", path)
			return
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryPolicy.NextDelay(attempt)):
		}
	}

	metrics.IncReportExport("failed")
	w.logger.Printf("report_worker: export failed after %d attempts: %v", w.retryPolicy.MaxRetries, lastErr)
	w.pushDeadLetter(ctx, task)
}

func (w *ReportWorker) pushRedis(ctx context.Context, task ReportTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *ReportWorker) pushDeadLetter(ctx context.Context, task ReportTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Printf("report_worker: encode deadletter: %v", err)
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Printf("report_worker: deadletter push: %v", err)
	}
}
