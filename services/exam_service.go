package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sahilchouksey/learnpath/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExamService runs the attempt lifecycle: Started -> Submitted
type ExamService struct {
	db       *gorm.DB
	resolver *PrerequisiteResolver
	log      *zap.Logger
	now      func() time.Time
}

// NewExamService creates a new exam service
func NewExamService(db *gorm.DB, resolver *PrerequisiteResolver, log *zap.Logger) *ExamService {
	return &ExamService{
		db:       db,
		resolver: resolver,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// QuestionView is a question as shown to a student before submission.
// It deliberately has no CorrectAnswer field.
type QuestionView struct {
	ID       uint               `json:"id"`
	Question string             `json:"question"`
	Type     model.QuestionType `json:"type"`
	Options  []string           `json:"options,omitempty"`
	Points   int                `json:"points"`
	Order    int                `json:"order"`
}

// StartExamResult is either a fresh attempt with its questions or, for a
// required exam already passed, the passing attempt.
type StartExamResult struct {
	AlreadyPassed bool               `json:"already_passed"`
	Attempt       *model.ExamAttempt `json:"attempt"`
	AttemptID     uint               `json:"attempt_id"`
	StartedAt     time.Time          `json:"started_at"`
	Duration      int                `json:"duration"`
	Questions     []QuestionView     `json:"questions,omitempty"`
}

// QuestionResult is the graded outcome of one question
type QuestionResult struct {
	QuestionID      uint               `json:"question_id"`
	Question        string             `json:"question"`
	Type            model.QuestionType `json:"type"`
	SubmittedAnswer string             `json:"submitted_answer"`
	CorrectAnswer   string             `json:"correct_answer"`
	IsCorrect       bool               `json:"is_correct"`
	PointsAwarded   int                `json:"points_awarded"`
	PointsPossible  int                `json:"points_possible"`
}

// Grade is the outcome of scoring a set of answers
type Grade struct {
	Score      int              `json:"score"`
	TotalScore int              `json:"total_score"`
	MaxScore   int              `json:"max_score"`
	Passed     bool             `json:"passed"`
	Results    []QuestionResult `json:"results"`
}

// AttemptResult is a submitted attempt with its recomputed breakdown
type AttemptResult struct {
	Grade
	AttemptID       uint      `json:"attempt_id"`
	ExamID          uint      `json:"exam_id"`
	StartedAt       time.Time `json:"started_at"`
	SubmittedAt     time.Time `json:"submitted_at"`
	DurationSeconds int64     `json:"duration_seconds"`
}

// GradeAnswers scores answers (keyed by question id) against questions.
// Every type, ESSAY included, is an exact match ignoring case and
// surrounding whitespace.
func GradeAnswers(questions []model.ExamQuestion, answers map[string]string, passingScore int) Grade {
	grade := Grade{Results: make([]QuestionResult, 0, len(questions))}

	for _, q := range questions {
		submitted := answers[strconv.FormatUint(uint64(q.ID), 10)]
		correct := submitted != "" &&
			strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(q.CorrectAnswer))

		awarded := 0
		if correct {
			awarded = q.Points
		}
		grade.MaxScore += q.Points
		grade.TotalScore += awarded

		grade.Results = append(grade.Results, QuestionResult{
			QuestionID:      q.ID,
			Question:        q.Question,
			Type:            q.Type,
			SubmittedAnswer: submitted,
			CorrectAnswer:   q.CorrectAnswer,
			IsCorrect:       correct,
			PointsAwarded:   awarded,
			PointsPossible:  q.Points,
		})
	}

	if grade.MaxScore > 0 {
		grade.Score = int(math.Round(float64(grade.TotalScore) / float64(grade.MaxScore) * 100))
	}
	grade.Passed = grade.Score >= passingScore
	return grade
}

// StartExam opens a new attempt once the user is enrolled and has completed
// every active lesson of the exam's subject.
func (s *ExamService) StartExam(ctx context.Context, userID, examID uint) (*StartExamResult, error) {
	var exam model.Exam
	err := s.db.WithContext(ctx).
		Preload("Subject").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		First(&exam, examID).Error
	if err != nil {
		return nil, lookupError("exam", err)
	}
	if !exam.IsActive {
		return nil, errInactive("exam")
	}

	enrolled, err := isEnrolled(ctx, s.db, userID, exam.Subject.MajorID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, errRequiresEnrollment(exam.Subject.MajorID)
	}

	eligible, err := s.resolver.ExamEligible(ctx, userID, examID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, errLocked("you must complete all lessons first", "subject", exam.Subject.ID, exam.Subject.Name)
	}

	if exam.IsRequired {
		var passed model.ExamAttempt
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND exam_id = ? AND passed = ?", userID, examID, true).
			Order("submitted_at DESC").
			First(&passed).Error
		switch {
		case err == nil:
			return &StartExamResult{
				AlreadyPassed: true,
				Attempt:       &passed,
				AttemptID:     passed.ID,
				StartedAt:     passed.StartedAt,
				Duration:      exam.Duration,
			}, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, s.internal("failed to look up passed attempts", err, userID, examID)
		}
	}

	attempt := model.ExamAttempt{
		UserID:    userID,
		ExamID:    examID,
		Answers:   model.EncodeAnswers(nil),
		StartedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		return nil, s.internal("failed to create exam attempt", err, userID, examID)
	}

	views := make([]QuestionView, 0, len(exam.Questions))
	for i := range exam.Questions {
		q := &exam.Questions[i]
		views = append(views, QuestionView{
			ID:       q.ID,
			Question: q.Question,
			Type:     q.Type,
			Options:  q.OptionList(),
			Points:   q.Points,
			Order:    q.Order,
		})
	}

	s.log.Info("exam attempt started",
		zap.Uint("user_id", userID),
		zap.Uint("exam_id", examID),
		zap.Uint("attempt_id", attempt.ID))

	return &StartExamResult{
		Attempt:   &attempt,
		AttemptID: attempt.ID,
		StartedAt: attempt.StartedAt,
		Duration:  exam.Duration,
		Questions: views,
	}, nil
}

// SubmitExam grades and seals the attempt. Only one submit per attempt can
// succeed; later ones fail with AlreadySubmitted and leave the row as is.
func (s *ExamService) SubmitExam(ctx context.Context, userID, attemptID, examID uint, answers map[string]string) (*Grade, error) {
	attempt, err := s.ownedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.ExamID != examID {
		return nil, errBadRequest("attempt does not belong to this exam")
	}
	if attempt.IsSubmitted() {
		return nil, errAlreadySubmitted()
	}

	exam, questions, err := s.examWithQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}

	grade := GradeAnswers(questions, answers, exam.PassingScore)

	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&model.ExamAttempt{}).
		Where("id = ? AND submitted_at IS NULL", attempt.ID).
		Updates(map[string]interface{}{
			"answers":      model.EncodeAnswers(answers),
			"score":        grade.Score,
			"passed":       grade.Passed,
			"submitted_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return nil, s.internal("failed to submit exam attempt", result.Error, userID, examID)
	}
	if result.RowsAffected == 0 {
		return nil, errAlreadySubmitted()
	}

	s.log.Info("exam attempt submitted",
		zap.Uint("user_id", userID),
		zap.Uint("attempt_id", attempt.ID),
		zap.Int("score", grade.Score),
		zap.Bool("passed", grade.Passed))

	return &grade, nil
}

// GetAttemptResult recomputes the breakdown of a submitted attempt from its
// stored answers.
func (s *ExamService) GetAttemptResult(ctx context.Context, userID, attemptID uint) (*AttemptResult, error) {
	attempt, err := s.ownedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.IsSubmitted() {
		return nil, errNotSubmitted()
	}

	exam, questions, err := s.examWithQuestions(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}

	answers, err := attempt.AnswerMap()
	if err != nil {
		return nil, s.internal("failed to decode stored answers", err, userID, attempt.ExamID)
	}

	grade := GradeAnswers(questions, answers, exam.PassingScore)
	// The sealed values win if questions were edited after submission.
	grade.Score = attempt.Score
	grade.Passed = attempt.Passed

	return &AttemptResult{
		Grade:           grade,
		AttemptID:       attempt.ID,
		ExamID:          attempt.ExamID,
		StartedAt:       attempt.StartedAt,
		SubmittedAt:     *attempt.SubmittedAt,
		DurationSeconds: int64(attempt.SubmittedAt.Sub(attempt.StartedAt).Seconds()),
	}, nil
}

// ListAttempts returns the user's attempts on an exam, newest first
func (s *ExamService) ListAttempts(ctx context.Context, userID, examID uint) ([]model.ExamAttempt, error) {
	var exam model.Exam
	if err := s.db.WithContext(ctx).Select("id").First(&exam, examID).Error; err != nil {
		return nil, lookupError("exam", err)
	}

	var attempts []model.ExamAttempt
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND exam_id = ?", userID, examID).
		Order("started_at DESC, id DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, s.internal("failed to list exam attempts", err, userID, examID)
	}
	return attempts, nil
}

func (s *ExamService) ownedAttempt(ctx context.Context, userID, attemptID uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	if err := s.db.WithContext(ctx).First(&attempt, attemptID).Error; err != nil {
		return nil, lookupError("exam attempt", err)
	}
	if attempt.UserID != userID {
		return nil, errForbidden("this attempt belongs to another user")
	}
	return &attempt, nil
}

func (s *ExamService) examWithQuestions(ctx context.Context, examID uint) (*model.Exam, []model.ExamQuestion, error) {
	var exam model.Exam
	if err := s.db.WithContext(ctx).First(&exam, examID).Error; err != nil {
		return nil, nil, lookupError("exam", err)
	}

	var questions []model.ExamQuestion
	err := s.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("sort_order ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, nil, errInternal("failed to load exam questions", err)
	}
	return &exam, questions, nil
}

func (s *ExamService) internal(message string, err error, userID, examID uint) error {
	s.log.Error(message, zap.Uint("user_id", userID), zap.Uint("exam_id", examID), zap.Error(err))
	return errInternal(message, err)
}
