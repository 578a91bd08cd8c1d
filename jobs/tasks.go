package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fruitline/fruitline/internal/jobs"
	"github.com/fruitline/fruitline/internal/upstream"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSaleCompensation deletes a sale left behind by a failed checkout.
	TaskSaleCompensation = "pos:sale:compensate"
	// TaskIdempotencyCleanup prunes old checkout idempotency keys.
	TaskIdempotencyCleanup = "pos:idempotency:cleanup"
)

// SaleCompensationPayload names the sale to delete upstream.
type SaleCompensationPayload struct {
	SaleID     string    `json:"sale_id"`
	Reason     string    `json:"reason"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewSaleCompensationTask constructs an Asynq task.
func NewSaleCompensationTask(payload SaleCompensationPayload) (*asynq.Task, error) {
	if payload.SaleID == "" {
		return nil, fmt.Errorf("jobs: sale id required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSaleCompensation, data), nil
}

// SaleDeleter removes a sale upstream.
type SaleDeleter interface {
	DeleteSale(ctx context.Context, id string) error
}

// CompensationJob retries sale deletions that failed inline during checkout.
type CompensationJob struct {
	sales   SaleDeleter
	metrics *jobmetrics.Metrics
	logger  *slog.Logger
}

// NewCompensationJob builds the job handler. sales must be bound to the
// worker's service credentials.
func NewCompensationJob(sales SaleDeleter, metrics *jobmetrics.Metrics, logger *slog.Logger) *CompensationJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompensationJob{sales: sales, metrics: metrics, logger: logger}
}

// Handle processes TaskSaleCompensation tasks.
func (j *CompensationJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SaleCompensationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.SaleID == "" {
		j.logger.Error("sale compensation payload", slog.Any("error", err))
		return fmt.Errorf("decode compensation payload: %w", asynq.SkipRetry)
	}
	tracker := j.metrics.Track("sale_compensation")
	err := j.sales.DeleteSale(ctx, payload.SaleID)
	if upstream.IsStatus(err, http.StatusNotFound) {
		// Already gone.
		err = nil
	}
	if err != nil {
		j.logger.Warn("sale compensation failed", slog.String("sale_id", payload.SaleID), slog.Any("error", err))
		return tracker.End(err)
	}
	j.metrics.AddCompensation("worker", 1)
	j.logger.Info("sale compensated", slog.String("sale_id", payload.SaleID), slog.String("reason", payload.Reason))
	return tracker.End(nil)
}

// KeyPruner deletes idempotency keys older than a cutoff.
type KeyPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// CleanupJob prunes idempotency keys on a schedule.
type CleanupJob struct {
	keys      KeyPruner
	retention time.Duration
	metrics   *jobmetrics.Metrics
	logger    *slog.Logger
}

// NewCleanupJob builds the cleanup handler.
func NewCleanupJob(keys KeyPruner, retention time.Duration, metrics *jobmetrics.Metrics, logger *slog.Logger) *CleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &CleanupJob{keys: keys, retention: retention, metrics: metrics, logger: logger}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *CleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.metrics.Track("idempotency_cleanup")
	if err := j.keys.Cleanup(ctx, j.retention); err != nil {
		j.logger.Warn("idempotency cleanup", slog.Any("error", err))
		return tracker.End(err)
	}
	return tracker.End(nil)
}

// NewCleanupTask constructs the cron task.
func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}
