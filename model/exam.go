package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// QuestionType enumerates the supported exam question kinds
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeEssay          QuestionType = "ESSAY"
)

// Valid reports whether t is a known question type
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeTrueFalse, QuestionTypeEssay:
		return true
	}
	return false
}

// Exam is a graded assessment attached to a subject.
// PassingScore is a percentage (0-100), Duration is in minutes.
type Exam struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	SubjectID    uint      `gorm:"not null;index" json:"subject_id"`
	Name         string    `gorm:"not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Duration     int       `gorm:"not null" json:"duration"`
	PassingScore int       `gorm:"not null" json:"passing_score"`
	IsRequired   bool      `gorm:"default:false" json:"is_required"`
	Order        int       `gorm:"column:sort_order;default:0" json:"order"`
	IsActive     bool      `gorm:"not null" json:"is_active"`

	// Relationships
	Subject   Subject        `gorm:"foreignKey:SubjectID" json:"-"`
	Questions []ExamQuestion `gorm:"foreignKey:ExamID" json:"questions,omitempty"`
}

// ExamQuestion holds one question and its grading key.
// CorrectAnswer is an option index for MULTIPLE_CHOICE, "true"/"false" for
// TRUE_FALSE and free text for ESSAY.
type ExamQuestion struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	ExamID        uint           `gorm:"not null;index" json:"exam_id"`
	Question      string         `gorm:"type:text;not null" json:"question"`
	Type          QuestionType   `gorm:"type:varchar(20);not null" json:"type"`
	Options       datatypes.JSON `json:"options,omitempty"`
	CorrectAnswer string         `gorm:"type:text;not null" json:"correct_answer"`
	Points        int            `gorm:"not null" json:"points"`
	Order         int            `gorm:"column:sort_order;default:0" json:"order"`
}

// OptionList decodes the stored options; nil when none are set
func (q *ExamQuestion) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// SetOptions encodes opts into the JSON column
func (q *ExamQuestion) SetOptions(opts []string) {
	if len(opts) == 0 {
		q.Options = nil
		return
	}
	raw, _ := json.Marshal(opts)
	q.Options = datatypes.JSON(raw)
}

// ExamAttempt is one user's attempt at an exam. SubmittedAt stays nil until
// the attempt is sealed; after that the row is never written again.
type ExamAttempt struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	UserID      uint           `gorm:"not null;index:idx_attempt_user_exam" json:"user_id"`
	ExamID      uint           `gorm:"not null;index:idx_attempt_user_exam" json:"exam_id"`
	Answers     datatypes.JSON `json:"answers,omitempty"`
	Score       int            `gorm:"default:0" json:"score"`
	Passed      bool           `gorm:"default:false" json:"passed"`
	StartedAt   time.Time      `gorm:"not null" json:"started_at"`
	SubmittedAt *time.Time     `gorm:"index" json:"submitted_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Exam Exam `gorm:"foreignKey:ExamID" json:"-"`
}

// IsSubmitted reports whether the attempt has been sealed
func (a *ExamAttempt) IsSubmitted() bool {
	return a.SubmittedAt != nil
}

// AnswerMap decodes the stored answers keyed by question id
func (a *ExamAttempt) AnswerMap() (map[string]string, error) {
	answers := map[string]string{}
	if len(a.Answers) == 0 {
		return answers, nil
	}
	if err := json.Unmarshal(a.Answers, &answers); err != nil {
		return nil, fmt.Errorf("attempt %d: decode answers: %w", a.ID, err)
	}
	return answers, nil
}

// EncodeAnswers turns an answers map into the JSON column value
func EncodeAnswers(answers map[string]string) datatypes.JSON {
	if answers == nil {
		answers = map[string]string{}
	}
	raw, _ := json.Marshal(answers)
	return datatypes.JSON(raw)
}
