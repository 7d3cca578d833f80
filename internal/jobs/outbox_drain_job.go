// Package jobs содержит фоновые задачи по расписанию.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// defaultDrainSchedule — каждые 30 секунд (cron с полем секунд).
const defaultDrainSchedule = "*/30 * * * * *"

// drainer — контракт драйнера очереди, нужный задаче.
type drainer interface {
	DrainOnce(ctx context.Context) int
}

// OutboxDrainJob периодически запускает драйнер outbox-очереди.
// Тот же драйнер доступен оператору через HTTP-эндпоинт; расписание —
// лишь автоматический триггер.
type OutboxDrainJob struct {
	drainer  drainer
	cron     *cron.Cron
	logger   *log.Entry
	schedule string
}

// NewOutboxDrainJob создаёт задачу с указанным cron-расписанием;
// пустое расписание заменяется умолчанием.
func NewOutboxDrainJob(d drainer, schedule string, logger *log.Entry) *OutboxDrainJob {
	if logger == nil {
		logger = log.WithField("component", "outbox-drain-job")
	}
	if schedule == "" {
		schedule = defaultDrainSchedule
	}
	return &OutboxDrainJob{
		drainer:  d,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
		schedule: schedule,
	}
}

// Start регистрирует задачу в планировщике и запускает его.
func (j *OutboxDrainJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		processed := j.drainer.DrainOnce(context.Background())
		if processed > 0 {
			j.logger.WithField("processed", processed).Info("scheduled outbox drain completed")
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.WithField("schedule", j.schedule).Info("outbox drain job started")
	return nil
}

// Stop останавливает планировщик, дожидаясь завершения текущего запуска.
func (j *OutboxDrainJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info("outbox drain job stopped")
}
