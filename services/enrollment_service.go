package services

import (
	"context"
	"time"

	"github.com/sahilchouksey/learnpath/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollmentService manages user registrations into majors
type EnrollmentService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB, log *zap.Logger) *EnrollmentService {
	return &EnrollmentService{db: db, log: log}
}

// Enroll registers the user into an active major. A second enrollment into
// the same major is a Conflict.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, majorID uint) (*model.Enrollment, error) {
	var major model.Major
	if err := s.db.WithContext(ctx).First(&major, majorID).Error; err != nil {
		return nil, lookupError("major", err)
	}
	if !major.IsActive {
		return nil, errInactive("major")
	}

	enrollment := model.Enrollment{
		UserID:     userID,
		MajorID:    majorID,
		Status:     model.EnrollmentStatusActive,
		EnrolledAt: time.Now().UTC(),
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "major_id"}},
			DoNothing: true,
		}).
		Create(&enrollment)
	if result.Error != nil {
		s.log.Error("failed to create enrollment", zap.Uint("user_id", userID), zap.Uint("major_id", majorID), zap.Error(result.Error))
		return nil, errInternal("failed to create enrollment", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errConflict("already enrolled in this major").with("major_id", majorID)
	}

	enrollment.Major = major
	return &enrollment, nil
}

// Unenroll removes the enrollment unless the user already has progress on a
// lesson under the major.
func (s *EnrollmentService) Unenroll(ctx context.Context, userID, majorID uint) error {
	var enrollment model.Enrollment
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND major_id = ?", userID, majorID).
		First(&enrollment).Error
	if err != nil {
		return lookupError("enrollment", err)
	}

	var progressCount int64
	err = s.db.WithContext(ctx).
		Model(&model.LessonProgress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id").
		Joins("JOIN subjects ON subjects.id = lessons.subject_id").
		Where("lesson_progress.user_id = ? AND subjects.major_id = ?", userID, majorID).
		Count(&progressCount).Error
	if err != nil {
		return errInternal("failed to count lesson progress", err)
	}
	if progressCount > 0 {
		return errConflict("cannot unenroll after starting lessons in this major").
			with("progress_count", progressCount)
	}

	if err := s.db.WithContext(ctx).Delete(&enrollment).Error; err != nil {
		return errInternal("failed to delete enrollment", err)
	}
	return nil
}

// ListEnrollments returns the user's enrollments with their majors
func (s *EnrollmentService) ListEnrollments(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Major").
		Where("user_id = ?", userID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, errInternal("failed to list enrollments", err)
	}
	return enrollments, nil
}

// isEnrolled reports whether userID holds an enrollment in majorID
func isEnrolled(ctx context.Context, db *gorm.DB, userID, majorID uint) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("user_id = ? AND major_id = ?", userID, majorID).
		Count(&count).Error
	if err != nil {
		return false, errInternal("failed to check enrollment", err)
	}
	return count > 0, nil
}
