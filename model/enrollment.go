package model

import (
	"time"
)

// EnrollmentStatus values
const (
	EnrollmentStatusActive = "active"
)

// Enrollment links a user to a major; unique on (user_id, major_id)
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_user_major" json:"user_id"`
	MajorID    uint      `gorm:"not null;uniqueIndex:idx_user_major" json:"major_id"`
	Status     string    `gorm:"type:varchar(20);default:'active'" json:"status"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	User  User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Major Major `gorm:"foreignKey:MajorID" json:"major,omitempty"`
}
