package model

import (
	"time"
)

// LessonProgress is the per-(user, lesson) watch and completion record.
// WatchTime is in minutes and never exceeds the lesson duration.
type LessonProgress struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	UserID             uint       `gorm:"not null;uniqueIndex:idx_user_lesson" json:"user_id"`
	LessonID           uint       `gorm:"not null;uniqueIndex:idx_user_lesson" json:"lesson_id"`
	WatchTime          float64    `gorm:"not null;default:0" json:"watch_time"`
	Completed          bool       `gorm:"not null;default:false;index" json:"completed"`
	CompletedAt        *time.Time `json:"completed_at"`
	FaceVerifiedBefore bool       `gorm:"not null;default:false" json:"face_verified_before"`
	FaceVerifiedAfter  bool       `gorm:"not null;default:false" json:"face_verified_after"`
	LastWatchedAt      *time.Time `json:"last_watched_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Lesson Lesson `gorm:"foreignKey:LessonID" json:"-"`
}

// TableName specifies the table name for LessonProgress
func (LessonProgress) TableName() string {
	return "lesson_progress"
}
