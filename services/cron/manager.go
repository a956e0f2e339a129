package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/learnpath/model"
	"github.com/sahilchouksey/learnpath/utils/auth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// jobFunc does the work of one job and returns a summary line
type jobFunc func(ctx context.Context) (string, error)

type job struct {
	name     string
	schedule string
	timeout  time.Duration
	run      jobFunc
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	blacklist *auth.Blacklist
	log       *zap.Logger
	now       func() time.Time
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, log *zap.Logger) *CronManager {
	return &CronManager{
		cron:      cron.New(cron.WithSeconds()),
		db:        db,
		blacklist: auth.NewBlacklist(db),
		log:       log.Named("cron"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (m *CronManager) jobs() []job {
	return []job{
		// Every hour: learning activity of the previous hour
		{"learning_stats", "0 0 * * * *", 5 * time.Minute, m.LearningStats},
		// Daily at 2 AM
		{"cleanup_token_blacklist", "0 0 2 * * *", 5 * time.Minute, m.CleanupTokenBlacklist},
		// Daily at 2:30 AM
		{"cleanup_cron_logs", "0 30 2 * * *", 5 * time.Minute, m.CleanupCronLogs},
	}
}

// Start registers every job and starts the scheduler
func (m *CronManager) Start() error {
	for _, j := range m.jobs() {
		j := j
		if _, err := m.cron.AddFunc(j.schedule, func() { m.Run(j.name) }); err != nil {
			return err
		}
	}

	m.cron.Start()
	m.log.Info("cron jobs started", zap.Int("jobs", len(m.cron.Entries())))
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (m *CronManager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("cron jobs stopped")
}

// JobNames lists the registered jobs in schedule order
func (m *CronManager) JobNames() []string {
	jobs := m.jobs()
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.name
	}
	return names
}

// Run executes the named job now, recording it in cron_job_logs.
// It returns false for an unknown name.
func (m *CronManager) Run(name string) bool {
	for _, j := range m.jobs() {
		if j.name != name {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		entry := m.logJobStart(j.name)
		message, err := j.run(ctx)
		cancel()

		if err != nil {
			m.logJobError(entry, err)
		} else {
			m.logJobComplete(entry, message)
		}
		return true
	}
	return false
}

func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	m.log.Info("starting job", zap.String("job", jobName))

	entry := &model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronStatusRunning,
		StartedAt: m.now(),
	}
	if err := m.db.Create(entry).Error; err != nil {
		m.log.Warn("failed to record job start", zap.String("job", jobName), zap.Error(err))
	}
	return entry
}

func (m *CronManager) logJobComplete(entry *model.CronJobLog, message string) {
	m.log.Info("job completed", zap.String("job", entry.JobName), zap.String("message", message))
	m.finish(entry, map[string]interface{}{
		"status":  model.CronStatusCompleted,
		"message": message,
	})
}

func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	m.log.Error("job failed", zap.String("job", entry.JobName), zap.Error(err))
	m.finish(entry, map[string]interface{}{
		"status":    model.CronStatusFailed,
		"error_msg": err.Error(),
	})
}

func (m *CronManager) finish(entry *model.CronJobLog, fields map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	done := m.now()
	fields["completed_at"] = done
	fields["duration"] = done.Sub(entry.StartedAt).Milliseconds()

	if err := m.db.Model(entry).Updates(fields).Error; err != nil {
		m.log.Warn("failed to record job result", zap.String("job", entry.JobName), zap.Error(err))
	}
}
