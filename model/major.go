package model

import (
	"time"
)

// Major is a top-level program of study
type Major struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null" json:"is_active"`

	// Relationships
	Subjects []Subject `gorm:"foreignKey:MajorID" json:"subjects,omitempty"`
}

// Subject is a course within a major. PrerequisiteID points at another
// subject of the same major; the pointers form a forest.
type Subject struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	MajorID        uint      `gorm:"not null;uniqueIndex:idx_major_subject_name" json:"major_id"`
	Name           string    `gorm:"not null;uniqueIndex:idx_major_subject_name" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	PrerequisiteID *uint     `gorm:"index" json:"prerequisite_id"`
	Order          int       `gorm:"column:sort_order;default:0" json:"order"`
	IsActive       bool      `gorm:"not null" json:"is_active"`

	// Relationships
	Major   Major    `gorm:"foreignKey:MajorID" json:"-"`
	Lessons []Lesson `gorm:"foreignKey:SubjectID" json:"lessons,omitempty"`
	Exams   []Exam   `gorm:"foreignKey:SubjectID" json:"exams,omitempty"`
}

// Lesson is a single watchable unit; Duration is in minutes.
type Lesson struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	SubjectID      uint      `gorm:"not null;index" json:"subject_id"`
	Name           string    `gorm:"not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	VideoURL       string    `gorm:"type:varchar(512)" json:"video_url"`
	Duration       int       `gorm:"not null" json:"duration"`
	PrerequisiteID *uint     `gorm:"index" json:"prerequisite_id"`
	Order          int       `gorm:"column:sort_order;default:0" json:"order"`
	IsActive       bool      `gorm:"not null" json:"is_active"`

	// Relationships
	Subject Subject `gorm:"foreignKey:SubjectID" json:"-"`
}
