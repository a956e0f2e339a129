package services

import (
	"context"

	"github.com/sahilchouksey/learnpath/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OutlineService builds the per-user view of a subject: which lessons are
// open, how far each one is watched and which exams can be taken.
type OutlineService struct {
	db       *gorm.DB
	resolver *PrerequisiteResolver
	log      *zap.Logger
}

// NewOutlineService creates a new outline service
func NewOutlineService(db *gorm.DB, resolver *PrerequisiteResolver, log *zap.Logger) *OutlineService {
	return &OutlineService{db: db, resolver: resolver, log: log}
}

// LessonOutline is one lesson row in a subject outline
type LessonOutline struct {
	ID                uint    `json:"id"`
	Name              string  `json:"name"`
	Duration          int     `json:"duration"`
	Order             int     `json:"order"`
	PrerequisiteID    *uint   `json:"prerequisite_id"`
	Locked            bool    `json:"locked"`
	Started           bool    `json:"started"`
	Completed         bool    `json:"completed"`
	WatchTime         float64 `json:"watch_time"`
	RequiredWatchTime int     `json:"required_watch_time"`
	PercentComplete   int     `json:"percent_complete"`
	FaceVerifiedAfter bool    `json:"face_verified_after"`
}

// ExamOutline is one exam row in a subject outline
type ExamOutline struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Duration     int    `json:"duration"`
	PassingScore int    `json:"passing_score"`
	IsRequired   bool   `json:"is_required"`
	Eligible     bool   `json:"eligible"`
	Attempts     int64  `json:"attempts"`
	BestScore    *int   `json:"best_score"`
	Passed       bool   `json:"passed"`
}

// SubjectOutline is the response of Outline
type SubjectOutline struct {
	SubjectID        uint            `json:"subject_id"`
	Name             string          `json:"name"`
	MajorID          uint            `json:"major_id"`
	Enrolled         bool            `json:"enrolled"`
	Locked           bool            `json:"locked"`
	LessonsTotal     int             `json:"lessons_total"`
	LessonsCompleted int             `json:"lessons_completed"`
	Lessons          []LessonOutline `json:"lessons"`
	Exams            []ExamOutline   `json:"exams"`
}

// Outline returns the subject as seen by userID. Only active lessons and
// exams are listed.
func (s *OutlineService) Outline(ctx context.Context, userID, subjectID uint) (*SubjectOutline, error) {
	var subject model.Subject
	if err := s.db.WithContext(ctx).First(&subject, subjectID).Error; err != nil {
		return nil, lookupError("subject", err)
	}
	if !subject.IsActive {
		return nil, errInactive("subject")
	}

	enrolled, err := isEnrolled(ctx, s.db, userID, subject.MajorID)
	if err != nil {
		return nil, err
	}
	subjectOpen, err := s.resolver.SubjectPrerequisiteSatisfied(ctx, userID, subjectID)
	if err != nil {
		return nil, err
	}

	var lessons []model.Lesson
	err = s.db.WithContext(ctx).
		Where("subject_id = ? AND is_active = ?", subjectID, true).
		Order("sort_order ASC, id ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, errInternal("failed to list lessons", err)
	}

	progressByLesson, err := s.progressFor(ctx, userID, lessons)
	if err != nil {
		return nil, err
	}

	outline := &SubjectOutline{
		SubjectID:    subject.ID,
		Name:         subject.Name,
		MajorID:      subject.MajorID,
		Enrolled:     enrolled,
		Locked:       !enrolled || !subjectOpen,
		LessonsTotal: len(lessons),
		Lessons:      make([]LessonOutline, 0, len(lessons)),
	}

	for _, lesson := range lessons {
		lessonOpen, err := s.resolver.LessonPrerequisiteSatisfied(ctx, userID, lesson.ID)
		if err != nil {
			return nil, err
		}

		row := LessonOutline{
			ID:                lesson.ID,
			Name:              lesson.Name,
			Duration:          lesson.Duration,
			Order:             lesson.Order,
			PrerequisiteID:    lesson.PrerequisiteID,
			Locked:            outline.Locked || !lessonOpen,
			RequiredWatchTime: RequiredWatchTime(lesson.Duration),
		}
		if p, ok := progressByLesson[lesson.ID]; ok {
			row.Started = true
			row.Completed = p.Completed
			row.WatchTime = p.WatchTime
			row.PercentComplete = PercentComplete(p.WatchTime, lesson.Duration)
			row.FaceVerifiedAfter = p.FaceVerifiedAfter
			if p.Completed {
				outline.LessonsCompleted++
			}
		}
		outline.Lessons = append(outline.Lessons, row)
	}

	exams, err := s.examOutlines(ctx, userID, subjectID, enrolled)
	if err != nil {
		return nil, err
	}
	outline.Exams = exams

	return outline, nil
}

func (s *OutlineService) progressFor(ctx context.Context, userID uint, lessons []model.Lesson) (map[uint]model.LessonProgress, error) {
	byLesson := make(map[uint]model.LessonProgress, len(lessons))
	if len(lessons) == 0 {
		return byLesson, nil
	}

	ids := make([]uint, len(lessons))
	for i, l := range lessons {
		ids[i] = l.ID
	}

	var rows []model.LessonProgress
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND lesson_id IN ?", userID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, errInternal("failed to read lesson progress", err)
	}
	for _, row := range rows {
		byLesson[row.LessonID] = row
	}
	return byLesson, nil
}

func (s *OutlineService) examOutlines(ctx context.Context, userID, subjectID uint, enrolled bool) ([]ExamOutline, error) {
	var exams []model.Exam
	err := s.db.WithContext(ctx).
		Where("subject_id = ? AND is_active = ?", subjectID, true).
		Order("sort_order ASC, id ASC").
		Find(&exams).Error
	if err != nil {
		return nil, errInternal("failed to list exams", err)
	}

	out := make([]ExamOutline, 0, len(exams))
	for _, exam := range exams {
		eligible, err := s.resolver.ExamEligible(ctx, userID, exam.ID)
		if err != nil {
			return nil, err
		}

		row := ExamOutline{
			ID:           exam.ID,
			Name:         exam.Name,
			Duration:     exam.Duration,
			PassingScore: exam.PassingScore,
			IsRequired:   exam.IsRequired,
			Eligible:     enrolled && eligible,
		}

		var stats struct {
			Attempts  int64
			BestScore *int
			Passed    int64
		}
		err = s.db.WithContext(ctx).
			Model(&model.ExamAttempt{}).
			Select("COUNT(*) AS attempts, MAX(score) AS best_score, "+
				"COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0) AS passed").
			Where("user_id = ? AND exam_id = ? AND submitted_at IS NOT NULL", userID, exam.ID).
			Scan(&stats).Error
		if err != nil {
			s.log.Error("failed to aggregate exam attempts", zap.Uint("exam_id", exam.ID), zap.Error(err))
			return nil, errInternal("failed to aggregate exam attempts", err)
		}
		row.Attempts = stats.Attempts
		row.BestScore = stats.BestScore
		row.Passed = stats.Passed > 0

		out = append(out, row)
	}
	return out, nil
}
