package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sahilchouksey/learnpath/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressService drives the per-(user, lesson) progression:
// NotStarted -> InProgress -> Completed, gated by the 2/3 watch rule and the
// post-watch face verification flag.
type ProgressService struct {
	db       *gorm.DB
	resolver *PrerequisiteResolver
	log      *zap.Logger
	now      func() time.Time
}

// NewProgressService creates a new progress service
func NewProgressService(db *gorm.DB, resolver *PrerequisiteResolver, log *zap.Logger) *ProgressService {
	return &ProgressService{
		db:       db,
		resolver: resolver,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WatchTimeResult is returned by UpdateWatchTime
type WatchTimeResult struct {
	Progress          *model.LessonProgress `json:"progress"`
	PercentComplete   int                   `json:"percent_complete"`
	RequiredWatchTime int                   `json:"required_watch_time"`
	CanComplete       bool                  `json:"can_complete"`
}

// accessCheck is one gate evaluated before a lesson may be started
type accessCheck func(ctx context.Context, userID uint) error

// StartLesson opens the lesson for the user. Every gate is evaluated before
// anything is written; an existing progress row is returned unchanged.
func (s *ProgressService) StartLesson(ctx context.Context, userID, lessonID uint) (*model.LessonProgress, error) {
	lesson, err := s.loadLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if !lesson.IsActive {
		return nil, errInactive("lesson")
	}
	if !lesson.Subject.IsActive {
		return nil, errInactive("subject")
	}

	checks := []accessCheck{
		s.enrollmentCheck(lesson.Subject.MajorID),
		s.lessonPrerequisiteCheck(lesson),
		s.subjectPrerequisiteCheck(&lesson.Subject),
	}
	for _, check := range checks {
		if err := check(ctx, userID); err != nil {
			return nil, err
		}
	}

	// Pre-watch verification is implicit at start.
	progress := model.LessonProgress{
		UserID:             userID,
		LessonID:           lessonID,
		FaceVerifiedBefore: true,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).
		Create(&progress).Error
	if err != nil {
		return nil, s.internal("failed to create lesson progress", err, userID, lessonID)
	}

	return s.findProgress(ctx, userID, lessonID)
}

// UpdateWatchTime records the user's watch position in minutes. The row is
// created when absent; completion is never changed here.
func (s *ProgressService) UpdateWatchTime(ctx context.Context, userID, lessonID uint, watchTime float64) (*WatchTimeResult, error) {
	if math.IsNaN(watchTime) || math.IsInf(watchTime, 0) || watchTime < 0 {
		return nil, errInvalidInput("watch time must be a non-negative number")
	}

	lesson, err := s.loadLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if watchTime > float64(lesson.Duration) {
		return nil, errInvalidInput("watch time cannot exceed the lesson duration").
			with("duration", lesson.Duration)
	}

	now := s.now()
	progress := model.LessonProgress{
		UserID:        userID,
		LessonID:      lessonID,
		WatchTime:     watchTime,
		LastWatchedAt: &now,
	}

	// Writes stamped earlier than the stored stamp lose, so the row always
	// reflects the most recent call.
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"watch_time": gorm.Expr(
					"CASE WHEN lesson_progress.last_watched_at IS NULL OR lesson_progress.last_watched_at <= ? THEN ? ELSE lesson_progress.watch_time END",
					now, watchTime),
				"last_watched_at": gorm.Expr(
					"CASE WHEN lesson_progress.last_watched_at IS NULL OR lesson_progress.last_watched_at <= ? THEN ? ELSE lesson_progress.last_watched_at END",
					now, now),
				"updated_at": now,
			}),
		}).
		Create(&progress).Error
	if err != nil {
		return nil, s.internal("failed to update watch time", err, userID, lessonID)
	}

	stored, err := s.findProgress(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}

	return &WatchTimeResult{
		Progress:          stored,
		PercentComplete:   PercentComplete(stored.WatchTime, lesson.Duration),
		RequiredWatchTime: RequiredWatchTime(lesson.Duration),
		CanComplete:       WatchTimeMeetsThreshold(stored.WatchTime, lesson.Duration),
	}, nil
}

// CheckVerifyAfter reports whether VerifyAfter would be accepted right now:
// the lesson exists, the user has a progress row and the watch threshold is
// met. It writes nothing.
func (s *ProgressService) CheckVerifyAfter(ctx context.Context, userID, lessonID uint) error {
	_, _, err := s.verifyAfterState(ctx, userID, lessonID)
	return err
}

func (s *ProgressService) verifyAfterState(ctx context.Context, userID, lessonID uint) (*model.Lesson, *model.LessonProgress, error) {
	lesson, err := s.loadLesson(ctx, lessonID)
	if err != nil {
		return nil, nil, err
	}

	progress, err := s.findProgress(ctx, userID, lessonID)
	if err != nil {
		return nil, nil, err
	}

	if !WatchTimeMeetsThreshold(progress.WatchTime, lesson.Duration) {
		return nil, nil, errInsufficientWatchTime(progress.WatchTime, RequiredWatchTime(lesson.Duration))
	}
	return lesson, progress, nil
}

// VerifyAfter records that the post-watch face verification succeeded.
// The caller is responsible for having obtained the match.
func (s *ProgressService) VerifyAfter(ctx context.Context, userID, lessonID uint) (*model.LessonProgress, error) {
	lesson, progress, err := s.verifyAfterState(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	required := RequiredWatchTime(lesson.Duration)

	result := s.db.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Where("id = ? AND watch_time >= ?", progress.ID, required).
		Updates(map[string]interface{}{
			"face_verified_after": true,
			"updated_at":          s.now(),
		})
	if result.Error != nil {
		return nil, s.internal("failed to record face verification", result.Error, userID, lessonID)
	}

	stored, err := s.findProgress(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 && !stored.FaceVerifiedAfter {
		return nil, errInsufficientWatchTime(stored.WatchTime, required)
	}
	return stored, nil
}

// CompleteLesson moves the lesson to Completed. Completing twice returns
// the completed row unchanged.
func (s *ProgressService) CompleteLesson(ctx context.Context, userID, lessonID uint) (*model.LessonProgress, error) {
	lesson, err := s.loadLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	progress, err := s.findProgress(ctx, userID, lessonID)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, errBadRequest("you must start the lesson before completing it")
		}
		return nil, err
	}
	if progress.Completed {
		return progress, nil
	}
	if err := completionBlocker(progress, lesson); err != nil {
		return nil, err
	}

	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Where("id = ? AND completed = ? AND face_verified_after = ? AND watch_time >= ?",
			progress.ID, false, true, RequiredWatchTime(lesson.Duration)).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return nil, s.internal("failed to complete lesson", result.Error, userID, lessonID)
	}

	stored, err := s.findProgress(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 && !stored.Completed {
		if err := completionBlocker(stored, lesson); err != nil {
			return nil, err
		}
	}

	s.log.Info("lesson completed", zap.Uint("user_id", userID), zap.Uint("lesson_id", lessonID))
	return stored, nil
}

// GetProgress returns the user's progress row for the lesson
func (s *ProgressService) GetProgress(ctx context.Context, userID, lessonID uint) (*model.LessonProgress, error) {
	if _, err := s.loadLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	return s.findProgress(ctx, userID, lessonID)
}

// completionBlocker returns the first unmet completion requirement
func completionBlocker(progress *model.LessonProgress, lesson *model.Lesson) error {
	if !WatchTimeMeetsThreshold(progress.WatchTime, lesson.Duration) {
		return errInsufficientWatchTime(progress.WatchTime, RequiredWatchTime(lesson.Duration))
	}
	if !progress.FaceVerifiedAfter {
		return errRequiresFaceVerification()
	}
	return nil
}

func (s *ProgressService) enrollmentCheck(majorID uint) accessCheck {
	return func(ctx context.Context, userID uint) error {
		enrolled, err := isEnrolled(ctx, s.db, userID, majorID)
		if err != nil {
			return err
		}
		if !enrolled {
			return errRequiresEnrollment(majorID)
		}
		return nil
	}
}

func (s *ProgressService) lessonPrerequisiteCheck(lesson *model.Lesson) accessCheck {
	return func(ctx context.Context, userID uint) error {
		if lesson.PrerequisiteID == nil {
			return nil
		}
		ok, err := s.resolver.LessonPrerequisiteSatisfied(ctx, userID, lesson.ID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		var prereq model.Lesson
		if err := s.db.WithContext(ctx).Select("id", "name").First(&prereq, *lesson.PrerequisiteID).Error; err != nil {
			return lookupError("prerequisite lesson", err)
		}
		return errLocked("complete the prerequisite lesson first", "lesson", prereq.ID, prereq.Name)
	}
}

func (s *ProgressService) subjectPrerequisiteCheck(subject *model.Subject) accessCheck {
	return func(ctx context.Context, userID uint) error {
		if subject.PrerequisiteID == nil {
			return nil
		}
		ok, err := s.resolver.SubjectPrerequisiteSatisfied(ctx, userID, subject.ID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		var prereq model.Subject
		if err := s.db.WithContext(ctx).Select("id", "name").First(&prereq, *subject.PrerequisiteID).Error; err != nil {
			return lookupError("prerequisite subject", err)
		}
		return errLocked("complete every lesson of the prerequisite subject first", "subject", prereq.ID, prereq.Name)
	}
}

func (s *ProgressService) loadLesson(ctx context.Context, lessonID uint) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := s.db.WithContext(ctx).Preload("Subject").First(&lesson, lessonID).Error; err != nil {
		return nil, lookupError("lesson", err)
	}
	return &lesson, nil
}

func (s *ProgressService) findProgress(ctx context.Context, userID, lessonID uint) (*model.LessonProgress, error) {
	var progress model.LessonProgress
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("lesson progress")
		}
		return nil, s.internal("failed to fetch lesson progress", err, userID, lessonID)
	}
	return &progress, nil
}

func (s *ProgressService) internal(message string, err error, userID, lessonID uint) error {
	s.log.Error(message, zap.Uint("user_id", userID), zap.Uint("lesson_id", lessonID), zap.Error(err))
	return errInternal(message, err)
}
