package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"pricing-service/internal/config"
	"pricing-service/internal/domains/discount/job"
	"pricing-service/internal/shared"
	"pricing-service/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.WorkerConfig
}

func NewScheduler(redisAddress, redisPassword string, jobConfig config.WorkerConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress, Password: redisPassword},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerReconcileStatusJob()
}

// ================================================
// Reconcile discount rule statuses
// ================================================
// Pricing requires status = active, so a rule whose window has opened is not
// applied until this job promotes it. A rule whose window has closed stops
// applying at once because the window is checked as well; a late run only
// delays its expired status in admin listings.
func (s *Scheduler) registerReconcileStatusJob() error {
	payload, err := json.Marshal(job.ReconcileStatusPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeReconcileDiscountStatus, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.ReconcileCron,
		task,
		asynq.Queue(shared.QueueDiscount),
		asynq.MaxRetry(1),
		asynq.Timeout(time.Minute),
		asynq.Unique(30*time.Second),
	)
	if err != nil {
		logger.Error("Failed to register ReconcileDiscountStatus job", err)
		return err
	}

	logger.Info("Registered ReconcileDiscountStatus", map[string]interface{}{
		"cron": s.jobConfig.ReconcileCron,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
