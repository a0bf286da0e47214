package housekeeping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/outbox"
)

const defaultRetention = 30 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPurger interface {
	PurgeBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, parkedAttempts int) (int64, error)
}

type OutboxRetentionParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  outboxPurger
	Retention   time.Duration
	MaxAttempts int
}

// NewOutboxRetentionJob deletes delivered and parked outbox rows older than the retention window.
func NewOutboxRetentionJob(params OutboxRetentionParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	return &outboxRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		retention:   retention,
		maxAttempts: params.MaxAttempts,
		now:         time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	repo        outboxPurger
	retention   time.Duration
	maxAttempts int
	now         func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.PurgeBefore(ctx, tx, cutoff, j.maxAttempts)
		deleted = rows
		return err
	})
	if err != nil {
		return fmt.Errorf("purge outbox: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "outbox retention complete")
	return nil
}

type backlogCounter interface {
	CountBacklog(ctx context.Context, maxAttempts int) (outbox.Backlog, error)
}

// NewOutboxBacklogJob publishes pending and parked outbox counts as gauges.
func NewOutboxBacklogJob(repo backlogCounter, maxAttempts int, jobMetrics *metrics.JobMetrics, logg *logger.Logger) (Job, error) {
	if repo == nil {
		return nil, errors.New("outbox repository required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &outboxBacklogJob{repo: repo, maxAttempts: maxAttempts, metrics: jobMetrics, logg: logg}, nil
}

type outboxBacklogJob struct {
	repo        backlogCounter
	maxAttempts int
	metrics     *metrics.JobMetrics
	logg        *logger.Logger
}

func (j *outboxBacklogJob) Name() string { return "outbox-backlog" }

func (j *outboxBacklogJob) Run(ctx context.Context) error {
	backlog, err := j.repo.CountBacklog(ctx, j.maxAttempts)
	if err != nil {
		return fmt.Errorf("count outbox backlog: %w", err)
	}
	j.metrics.SetBacklog(backlog.Pending, backlog.Parked)
	if backlog.Parked > 0 {
		j.logg.Warn(j.logg.WithField(ctx, "parked", backlog.Parked), "outbox has parked events")
	}
	return nil
}
