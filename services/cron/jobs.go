package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/learnpath/model"
	"go.uber.org/zap"
)

// cronLogRetention is how long job history is kept
const cronLogRetention = 30 * 24 * time.Hour

// LearningStats counts lesson completions and exam submissions during the
// previous full hour.
func (m *CronManager) LearningStats(ctx context.Context) (string, error) {
	end := m.now().Truncate(time.Hour)
	start := end.Add(-time.Hour)

	var completed int64
	err := m.db.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Where("completed = ? AND completed_at >= ? AND completed_at < ?", true, start, end).
		Count(&completed).Error
	if err != nil {
		return "", fmt.Errorf("failed to count completed lessons: %w", err)
	}

	var exams struct {
		Submitted int64
		Passed    int64
	}
	err = m.db.WithContext(ctx).
		Model(&model.ExamAttempt{}).
		Select("COUNT(*) AS submitted, COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0) AS passed").
		Where("submitted_at >= ? AND submitted_at < ?", start, end).
		Scan(&exams).Error
	if err != nil {
		return "", fmt.Errorf("failed to aggregate exam attempts: %w", err)
	}

	m.log.Info("learning stats",
		zap.Time("from", start),
		zap.Time("to", end),
		zap.Int64("lessons_completed", completed),
		zap.Int64("exams_submitted", exams.Submitted),
		zap.Int64("exams_passed", exams.Passed))

	return fmt.Sprintf("lessons completed: %d, exams submitted: %d, exams passed: %d",
		completed, exams.Submitted, exams.Passed), nil
}

// CleanupTokenBlacklist drops revoked tokens that have expired anyway
func (m *CronManager) CleanupTokenBlacklist(ctx context.Context) (string, error) {
	removed, err := m.blacklist.PurgeExpired(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to clean token blacklist: %w", err)
	}
	return fmt.Sprintf("removed %d expired tokens", removed), nil
}

// CleanupCronLogs drops job history older than cronLogRetention
func (m *CronManager) CleanupCronLogs(ctx context.Context) (string, error) {
	cutoff := m.now().Add(-cronLogRetention)
	result := m.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		return "", fmt.Errorf("failed to clean cron logs: %w", result.Error)
	}
	return fmt.Sprintf("removed %d old cron logs", result.RowsAffected), nil
}
