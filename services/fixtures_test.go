package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/sahilchouksey/learnpath/database"
	"github.com/sahilchouksey/learnpath/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	store, err := database.OpenSQLite(":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })
	return store.GetDB()
}

func uintPtr(v uint) *uint { return &v }

func mkUser(t *testing.T, db *gorm.DB, email string) model.User {
	t.Helper()
	user := model.User{Email: email, PasswordHash: "hash", Name: email, Role: model.RoleStudent}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func mkMajor(t *testing.T, db *gorm.DB, name string) model.Major {
	t.Helper()
	major := model.Major{Name: name, IsActive: true}
	require.NoError(t, db.Create(&major).Error)
	return major
}

func mkSubject(t *testing.T, db *gorm.DB, majorID uint, name string, prereq *uint) model.Subject {
	t.Helper()
	subject := model.Subject{MajorID: majorID, Name: name, PrerequisiteID: prereq, IsActive: true}
	require.NoError(t, db.Create(&subject).Error)
	return subject
}

func mkLesson(t *testing.T, db *gorm.DB, subjectID uint, name string, duration int, prereq *uint) model.Lesson {
	t.Helper()
	lesson := model.Lesson{SubjectID: subjectID, Name: name, Duration: duration, PrerequisiteID: prereq, IsActive: true}
	require.NoError(t, db.Create(&lesson).Error)
	return lesson
}

func mkExam(t *testing.T, db *gorm.DB, subjectID uint, passingScore int, required bool) model.Exam {
	t.Helper()
	exam := model.Exam{
		SubjectID:    subjectID,
		Name:         fmt.Sprintf("Exam %d", subjectID),
		Duration:     30,
		PassingScore: passingScore,
		IsRequired:   required,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&exam).Error)
	return exam
}

func mkQuestion(t *testing.T, db *gorm.DB, examID uint, qtype model.QuestionType, answer string, points int) model.ExamQuestion {
	t.Helper()
	q := model.ExamQuestion{
		ExamID:        examID,
		Question:      "Q " + answer,
		Type:          qtype,
		CorrectAnswer: answer,
		Points:        points,
	}
	if qtype == model.QuestionTypeMultipleChoice {
		q.SetOptions([]string{"a", "b", "c"})
	}
	require.NoError(t, db.Create(&q).Error)
	return q
}

func enroll(t *testing.T, db *gorm.DB, userID, majorID uint) {
	t.Helper()
	require.NoError(t, db.Create(&model.Enrollment{
		UserID:     userID,
		MajorID:    majorID,
		Status:     model.EnrollmentStatusActive,
		EnrolledAt: time.Now().UTC(),
	}).Error)
}

func markCompleted(t *testing.T, db *gorm.DB, userID uint, lesson model.Lesson) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&model.LessonProgress{
		UserID:             userID,
		LessonID:           lesson.ID,
		WatchTime:          float64(lesson.Duration),
		Completed:          true,
		CompletedAt:        &now,
		FaceVerifiedBefore: true,
		FaceVerifiedAfter:  true,
	}).Error)
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

// appErr asserts err is an *AppError of kind and returns it
func appErr(t *testing.T, err error, kind ErrorKind) *AppError {
	t.Helper()
	require.Error(t, err)
	ae, ok := err.(*AppError)
	require.True(t, ok, "expected *AppError, got %T: %v", err, err)
	require.Equal(t, kind, ae.Kind, ae.Message)
	return ae
}
