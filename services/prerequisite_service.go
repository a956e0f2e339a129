package services

import (
	"context"
	"errors"
	"math"

	"github.com/sahilchouksey/learnpath/model"
	"gorm.io/gorm"
)

// RequiredWatchTime is ceil(duration * 2 / 3) minutes
func RequiredWatchTime(duration int) int {
	if duration <= 0 {
		return 0
	}
	return (duration*2 + 2) / 3
}

// WatchTimeMeetsThreshold reports whether watchTime satisfies the 2/3 rule.
// Progress updates, post-watch verification and completion all go through it.
func WatchTimeMeetsThreshold(watchTime float64, duration int) bool {
	return watchTime >= float64(RequiredWatchTime(duration))
}

// PercentComplete returns watchTime as a whole percentage of duration, capped at 100
func PercentComplete(watchTime float64, duration int) int {
	if duration <= 0 {
		return 0
	}
	pct := int(math.Round(watchTime / float64(duration) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

// PrerequisiteResolver answers "is X allowed yet" for lessons, subjects and
// exams. It only reads.
type PrerequisiteResolver struct {
	db *gorm.DB
}

// NewPrerequisiteResolver creates a resolver over db
func NewPrerequisiteResolver(db *gorm.DB) *PrerequisiteResolver {
	return &PrerequisiteResolver{db: db}
}

// SubjectPrerequisiteSatisfied is true when the subject has no prerequisite
// or every active lesson of the prerequisite subject is completed by the
// user. A prerequisite subject without lessons counts as satisfied.
func (r *PrerequisiteResolver) SubjectPrerequisiteSatisfied(ctx context.Context, userID, subjectID uint) (bool, error) {
	var subject model.Subject
	if err := r.db.WithContext(ctx).Select("id", "prerequisite_id").First(&subject, subjectID).Error; err != nil {
		return false, lookupError("subject", err)
	}

	if subject.PrerequisiteID == nil {
		return true, nil
	}

	var prereq model.Subject
	if err := r.db.WithContext(ctx).Select("id").First(&prereq, *subject.PrerequisiteID).Error; err != nil {
		return false, lookupError("prerequisite subject", err)
	}

	return r.subjectLessonsCompleted(ctx, userID, prereq.ID)
}

// LessonPrerequisiteSatisfied is true when the lesson has no prerequisite or
// the user has a completed progress row for it.
func (r *PrerequisiteResolver) LessonPrerequisiteSatisfied(ctx context.Context, userID, lessonID uint) (bool, error) {
	var lesson model.Lesson
	if err := r.db.WithContext(ctx).Select("id", "prerequisite_id").First(&lesson, lessonID).Error; err != nil {
		return false, lookupError("lesson", err)
	}

	if lesson.PrerequisiteID == nil {
		return true, nil
	}

	return r.lessonCompleted(ctx, userID, *lesson.PrerequisiteID)
}

// ExamEligible is true when the user completed every active lesson of the
// exam's subject. A subject without lessons is vacuously eligible.
func (r *PrerequisiteResolver) ExamEligible(ctx context.Context, userID, examID uint) (bool, error) {
	var exam model.Exam
	if err := r.db.WithContext(ctx).Select("id", "subject_id").First(&exam, examID).Error; err != nil {
		return false, lookupError("exam", err)
	}

	return r.subjectLessonsCompleted(ctx, userID, exam.SubjectID)
}

func (r *PrerequisiteResolver) lessonCompleted(ctx context.Context, userID, lessonID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Where("user_id = ? AND lesson_id = ? AND completed = ?", userID, lessonID, true).
		Count(&count).Error
	if err != nil {
		return false, errInternal("failed to read lesson progress", err)
	}
	return count > 0, nil
}

func (r *PrerequisiteResolver) subjectLessonsCompleted(ctx context.Context, userID, subjectID uint) (bool, error) {
	var lessonIDs []uint
	err := r.db.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("subject_id = ? AND is_active = ?", subjectID, true).
		Pluck("id", &lessonIDs).Error
	if err != nil {
		return false, errInternal("failed to list lessons", err)
	}

	if len(lessonIDs) == 0 {
		return true, nil
	}

	var completed int64
	err = r.db.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Where("user_id = ? AND completed = ? AND lesson_id IN ?", userID, true, lessonIDs).
		Count(&completed).Error
	if err != nil {
		return false, errInternal("failed to read lesson progress", err)
	}

	return completed == int64(len(lessonIDs)), nil
}

// lookupError maps a First() failure onto NotFound or Internal
func lookupError(entity string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(entity)
	}
	return errInternal("failed to fetch "+entity, err)
}
