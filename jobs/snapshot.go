package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/catalog/internal/jobmetrics"
	"github.com/odyssey-erp/catalog/internal/products"
)

// ProductSource lists every product. The snapshot is a trusted caller of GetAll.
type ProductSource interface {
	GetAll(ctx context.Context) ([]products.Product, error)
}

// Snapshot holds the totals computed by one run.
type Snapshot struct {
	Products  int
	RateTotal float64
	TakenAt   time.Time
}

// SnapshotJob counts products and sums their rates.
type SnapshotJob struct {
	Source  ProductSource
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSnapshotJob initialises the snapshot handler.
func NewSnapshotJob(source ProductSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotJob {
	return &SnapshotJob{
		Source:  source,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskCatalogSnapshot tasks.
func (j *SnapshotJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Source == nil {
		return errors.New("catalog snapshot: handler not configured")
	}
	var payload SnapshotPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("catalog snapshot: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	tracker := j.Metrics.Track(TaskCatalogSnapshot)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger()
	if payload.RequestedBy != "" {
		logger = logger.With(slog.String("requested_by", payload.RequestedBy))
	}
	logger.Info("starting catalog snapshot")

	snap, err := j.Run(ctx)
	if err != nil {
		logger.Error("catalog snapshot failed", slog.Any("error", err))
		return err
	}
	j.Metrics.RecordSnapshot(snap.Products, snap.RateTotal, snap.TakenAt)
	logger.Info("completed catalog snapshot",
		slog.Int("products", snap.Products),
		slog.Float64("rate_total", snap.RateTotal),
	)
	return nil
}

// Run computes a snapshot without recording it.
func (j *SnapshotJob) Run(ctx context.Context) (Snapshot, error) {
	all, err := j.Source.GetAll(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("catalog snapshot: list products: %w", err)
	}
	snap := Snapshot{Products: len(all), TakenAt: j.now()}
	for _, p := range all {
		snap.RateTotal += p.Rate
	}
	return snap, nil
}

func (j *SnapshotJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

func (j *SnapshotJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}
