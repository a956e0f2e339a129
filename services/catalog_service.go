package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sahilchouksey/learnpath/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogService is the admin-facing CRUD over majors, subjects, lessons,
// exams and questions. Structural rules (same-parent prerequisites, no
// cycles, delete guards) are enforced here, independent of the database.
type CatalogService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *gorm.DB, log *zap.Logger) *CatalogService {
	return &CatalogService{db: db, log: log}
}

// MajorInput is the writable part of a major
type MajorInput struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"max=5000"`
	IsActive    *bool  `json:"is_active"`
}

// SubjectInput is the writable part of a subject
type SubjectInput struct {
	Name           string `json:"name" validate:"required,min=2,max=200"`
	Description    string `json:"description" validate:"max=5000"`
	PrerequisiteID *uint  `json:"prerequisite_id"`
	Order          int    `json:"order" validate:"min=0"`
	IsActive       *bool  `json:"is_active"`
}

// LessonInput is the writable part of a lesson
type LessonInput struct {
	Name           string `json:"name" validate:"required,min=2,max=200"`
	Description    string `json:"description" validate:"max=5000"`
	VideoURL       string `json:"video_url" validate:"omitempty,url,max=512"`
	Duration       int    `json:"duration" validate:"required,min=1"`
	PrerequisiteID *uint  `json:"prerequisite_id"`
	Order          int    `json:"order" validate:"min=0"`
	IsActive       *bool  `json:"is_active"`
}

// ExamInput is the writable part of an exam
type ExamInput struct {
	Name         string `json:"name" validate:"required,min=2,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	Duration     int    `json:"duration" validate:"required,min=1"`
	PassingScore int    `json:"passing_score" validate:"min=0,max=100"`
	IsRequired   bool   `json:"is_required"`
	Order        int    `json:"order" validate:"min=0"`
	IsActive     *bool  `json:"is_active"`
}

// QuestionInput is the writable part of an exam question
type QuestionInput struct {
	Question      string             `json:"question" validate:"required"`
	Type          model.QuestionType `json:"type" validate:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE ESSAY"`
	Options       []string           `json:"options"`
	CorrectAnswer string             `json:"correct_answer" validate:"required"`
	Points        int                `json:"points" validate:"required,min=1"`
	Order         int                `json:"order" validate:"min=0"`
}

func activeOr(flag *bool, current bool) bool {
	if flag == nil {
		return current
	}
	return *flag
}

// ==================== Majors ====================

// ListMajors returns majors ordered by name
func (s *CatalogService) ListMajors(ctx context.Context, activeOnly bool) ([]model.Major, error) {
	query := s.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var majors []model.Major
	if err := query.Find(&majors).Error; err != nil {
		return nil, errInternal("failed to list majors", err)
	}
	return majors, nil
}

// GetMajor returns a major with its subjects
func (s *CatalogService) GetMajor(ctx context.Context, id uint) (*model.Major, error) {
	var major model.Major
	err := s.db.WithContext(ctx).
		Preload("Subjects", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		First(&major, id).Error
	if err != nil {
		return nil, lookupError("major", err)
	}
	return &major, nil
}

// CreateMajor adds a major; names are unique
func (s *CatalogService) CreateMajor(ctx context.Context, in MajorInput) (*model.Major, error) {
	name := strings.TrimSpace(in.Name)
	if err := s.ensureUnique(ctx, &model.Major{}, "major", "name = ?", name); err != nil {
		return nil, err
	}

	major := model.Major{
		Name:        name,
		Description: in.Description,
		IsActive:    activeOr(in.IsActive, true),
	}
	if err := s.db.WithContext(ctx).Create(&major).Error; err != nil {
		return nil, s.writeError("failed to create major", err)
	}
	return &major, nil
}

// UpdateMajor replaces the major's writable fields
func (s *CatalogService) UpdateMajor(ctx context.Context, id uint, in MajorInput) (*model.Major, error) {
	var major model.Major
	if err := s.db.WithContext(ctx).First(&major, id).Error; err != nil {
		return nil, lookupError("major", err)
	}

	name := strings.TrimSpace(in.Name)
	if err := s.ensureUnique(ctx, &model.Major{}, "major", "name = ? AND id <> ?", name, id); err != nil {
		return nil, err
	}

	major.Name = name
	major.Description = in.Description
	major.IsActive = activeOr(in.IsActive, major.IsActive)
	if err := s.db.WithContext(ctx).Save(&major).Error; err != nil {
		return nil, s.writeError("failed to update major", err)
	}
	return &major, nil
}

// DeleteMajor removes a major that has no subjects and no enrollments
func (s *CatalogService) DeleteMajor(ctx context.Context, id uint) error {
	var major model.Major
	if err := s.db.WithContext(ctx).First(&major, id).Error; err != nil {
		return lookupError("major", err)
	}

	guards := []deleteGuard{
		{&model.Subject{}, "major_id = ?", "major has subjects"},
		{&model.Enrollment{}, "major_id = ?", "major has enrollments"},
	}
	if err := s.checkGuards(ctx, id, guards); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&major).Error; err != nil {
		return s.writeError("failed to delete major", err)
	}
	return nil
}

// ==================== Subjects ====================

// ListSubjects returns the subjects of a major in display order
func (s *CatalogService) ListSubjects(ctx context.Context, majorID uint) ([]model.Subject, error) {
	if err := s.exists(ctx, &model.Major{}, "major", majorID); err != nil {
		return nil, err
	}
	var subjects []model.Subject
	err := s.db.WithContext(ctx).
		Where("major_id = ?", majorID).
		Order("sort_order ASC, id ASC").
		Find(&subjects).Error
	if err != nil {
		return nil, errInternal("failed to list subjects", err)
	}
	return subjects, nil
}

// GetSubject returns a subject with its lessons and exams
func (s *CatalogService) GetSubject(ctx context.Context, id uint) (*model.Subject, error) {
	var subject model.Subject
	err := s.db.WithContext(ctx).
		Preload("Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Preload("Exams", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		First(&subject, id).Error
	if err != nil {
		return nil, lookupError("subject", err)
	}
	return &subject, nil
}

// CreateSubject adds a subject to a major
func (s *CatalogService) CreateSubject(ctx context.Context, majorID uint, in SubjectInput) (*model.Subject, error) {
	if err := s.exists(ctx, &model.Major{}, "major", majorID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if err := s.ensureUnique(ctx, &model.Subject{}, "subject", "major_id = ? AND name = ?", majorID, name); err != nil {
		return nil, err
	}
	if err := s.validateSubjectPrerequisite(ctx, 0, majorID, in.PrerequisiteID); err != nil {
		return nil, err
	}

	subject := model.Subject{
		MajorID:        majorID,
		Name:           name,
		Description:    in.Description,
		PrerequisiteID: in.PrerequisiteID,
		Order:          in.Order,
		IsActive:       activeOr(in.IsActive, true),
	}
	if err := s.db.WithContext(ctx).Create(&subject).Error; err != nil {
		return nil, s.writeError("failed to create subject", err)
	}
	return &subject, nil
}

// UpdateSubject replaces the subject's writable fields. A prerequisite change
// that would close a cycle is rejected and nothing is written.
func (s *CatalogService) UpdateSubject(ctx context.Context, id uint, in SubjectInput) (*model.Subject, error) {
	var subject model.Subject
	if err := s.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return nil, lookupError("subject", err)
	}

	name := strings.TrimSpace(in.Name)
	if err := s.ensureUnique(ctx, &model.Subject{}, "subject", "major_id = ? AND name = ? AND id <> ?", subject.MajorID, name, id); err != nil {
		return nil, err
	}
	if err := s.validateSubjectPrerequisite(ctx, id, subject.MajorID, in.PrerequisiteID); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).
		Model(&subject).
		Select("name", "description", "prerequisite_id", "sort_order", "is_active").
		Updates(&model.Subject{
			Name:           name,
			Description:    in.Description,
			PrerequisiteID: in.PrerequisiteID,
			Order:          in.Order,
			IsActive:       activeOr(in.IsActive, subject.IsActive),
		}).Error
	if err != nil {
		return nil, s.writeError("failed to update subject", err)
	}
	return s.reloadSubject(ctx, id)
}

// DeleteSubject removes a subject with no lessons, exams or dependents
func (s *CatalogService) DeleteSubject(ctx context.Context, id uint) error {
	var subject model.Subject
	if err := s.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return lookupError("subject", err)
	}

	guards := []deleteGuard{
		{&model.Lesson{}, "subject_id = ?", "subject has lessons"},
		{&model.Exam{}, "subject_id = ?", "subject has exams"},
		{&model.Subject{}, "prerequisite_id = ?", "other subjects depend on this subject"},
	}
	if err := s.checkGuards(ctx, id, guards); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&subject).Error; err != nil {
		return s.writeError("failed to delete subject", err)
	}
	return nil
}

func (s *CatalogService) reloadSubject(ctx context.Context, id uint) (*model.Subject, error) {
	var subject model.Subject
	if err := s.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return nil, lookupError("subject", err)
	}
	return &subject, nil
}

// validateSubjectPrerequisite checks that prereqID names another subject of
// the same major and that pointing selfID at it leaves the graph acyclic.
// selfID is 0 on create.
func (s *CatalogService) validateSubjectPrerequisite(ctx context.Context, selfID, majorID uint, prereqID *uint) error {
	if prereqID == nil {
		return nil
	}
	if *prereqID == selfID {
		return errInvalidInput("a subject cannot be its own prerequisite")
	}

	var prereq model.Subject
	if err := s.db.WithContext(ctx).Select("id", "major_id").First(&prereq, *prereqID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errInvalidInput("prerequisite subject not found")
		}
		return errInternal("failed to fetch prerequisite subject", err)
	}
	if prereq.MajorID != majorID {
		return errInvalidInput("prerequisite subject must belong to the same major")
	}
	if selfID == 0 {
		return nil
	}

	return s.walkChain(ctx, &model.Subject{}, "subject", selfID, *prereqID)
}

// ==================== Lessons ====================

// ListLessons returns the lessons of a subject in display order
func (s *CatalogService) ListLessons(ctx context.Context, subjectID uint) ([]model.Lesson, error) {
	if err := s.exists(ctx, &model.Subject{}, "subject", subjectID); err != nil {
		return nil, err
	}
	var lessons []model.Lesson
	err := s.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("sort_order ASC, id ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, errInternal("failed to list lessons", err)
	}
	return lessons, nil
}

// GetLesson returns a single lesson
func (s *CatalogService) GetLesson(ctx context.Context, id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := s.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, lookupError("lesson", err)
	}
	return &lesson, nil
}

// CreateLesson adds a lesson to a subject
func (s *CatalogService) CreateLesson(ctx context.Context, subjectID uint, in LessonInput) (*model.Lesson, error) {
	if err := s.exists(ctx, &model.Subject{}, "subject", subjectID); err != nil {
		return nil, err
	}
	if in.Duration <= 0 {
		return nil, errInvalidInput("duration must be greater than zero")
	}
	if err := s.validateLessonPrerequisite(ctx, 0, subjectID, in.PrerequisiteID); err != nil {
		return nil, err
	}

	lesson := model.Lesson{
		SubjectID:      subjectID,
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		VideoURL:       in.VideoURL,
		Duration:       in.Duration,
		PrerequisiteID: in.PrerequisiteID,
		Order:          in.Order,
		IsActive:       activeOr(in.IsActive, true),
	}
	if err := s.db.WithContext(ctx).Create(&lesson).Error; err != nil {
		return nil, s.writeError("failed to create lesson", err)
	}
	return &lesson, nil
}

// UpdateLesson replaces the lesson's writable fields
func (s *CatalogService) UpdateLesson(ctx context.Context, id uint, in LessonInput) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := s.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, lookupError("lesson", err)
	}
	if in.Duration <= 0 {
		return nil, errInvalidInput("duration must be greater than zero")
	}
	if err := s.validateLessonPrerequisite(ctx, id, lesson.SubjectID, in.PrerequisiteID); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).
		Model(&lesson).
		Select("name", "description", "video_url", "duration", "prerequisite_id", "sort_order", "is_active").
		Updates(&model.Lesson{
			Name:           strings.TrimSpace(in.Name),
			Description:    in.Description,
			VideoURL:       in.VideoURL,
			Duration:       in.Duration,
			PrerequisiteID: in.PrerequisiteID,
			Order:          in.Order,
			IsActive:       activeOr(in.IsActive, lesson.IsActive),
		}).Error
	if err != nil {
		return nil, s.writeError("failed to update lesson", err)
	}
	return s.GetLesson(ctx, id)
}

// DeleteLesson removes a lesson nobody depends on and nobody has started
func (s *CatalogService) DeleteLesson(ctx context.Context, id uint) error {
	var lesson model.Lesson
	if err := s.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return lookupError("lesson", err)
	}

	guards := []deleteGuard{
		{&model.Lesson{}, "prerequisite_id = ?", "other lessons depend on this lesson"},
		{&model.LessonProgress{}, "lesson_id = ?", "students have progress on this lesson"},
	}
	if err := s.checkGuards(ctx, id, guards); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&lesson).Error; err != nil {
		return s.writeError("failed to delete lesson", err)
	}
	return nil
}

func (s *CatalogService) validateLessonPrerequisite(ctx context.Context, selfID, subjectID uint, prereqID *uint) error {
	if prereqID == nil {
		return nil
	}
	if *prereqID == selfID {
		return errInvalidInput("a lesson cannot be its own prerequisite")
	}

	var prereq model.Lesson
	if err := s.db.WithContext(ctx).Select("id", "subject_id").First(&prereq, *prereqID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errInvalidInput("prerequisite lesson not found")
		}
		return errInternal("failed to fetch prerequisite lesson", err)
	}
	if prereq.SubjectID != subjectID {
		return errInvalidInput("prerequisite lesson must belong to the same subject")
	}
	if selfID == 0 {
		return nil
	}

	return s.walkChain(ctx, &model.Lesson{}, "lesson", selfID, *prereqID)
}

// ==================== Exams ====================

// ListExams returns the exams of a subject in display order
func (s *CatalogService) ListExams(ctx context.Context, subjectID uint) ([]model.Exam, error) {
	if err := s.exists(ctx, &model.Subject{}, "subject", subjectID); err != nil {
		return nil, err
	}
	var exams []model.Exam
	err := s.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("sort_order ASC, id ASC").
		Find(&exams).Error
	if err != nil {
		return nil, errInternal("failed to list exams", err)
	}
	return exams, nil
}

// GetExam returns an exam with its questions, grading keys included
func (s *CatalogService) GetExam(ctx context.Context, id uint) (*model.Exam, error) {
	var exam model.Exam
	err := s.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		First(&exam, id).Error
	if err != nil {
		return nil, lookupError("exam", err)
	}
	return &exam, nil
}

// CreateExam adds an exam to a subject
func (s *CatalogService) CreateExam(ctx context.Context, subjectID uint, in ExamInput) (*model.Exam, error) {
	if err := s.exists(ctx, &model.Subject{}, "subject", subjectID); err != nil {
		return nil, err
	}
	if err := validateExamInput(in); err != nil {
		return nil, err
	}

	exam := model.Exam{
		SubjectID:    subjectID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Duration:     in.Duration,
		PassingScore: in.PassingScore,
		IsRequired:   in.IsRequired,
		Order:        in.Order,
		IsActive:     activeOr(in.IsActive, true),
	}
	if err := s.db.WithContext(ctx).Create(&exam).Error; err != nil {
		return nil, s.writeError("failed to create exam", err)
	}
	return &exam, nil
}

// UpdateExam replaces the exam's writable fields
func (s *CatalogService) UpdateExam(ctx context.Context, id uint, in ExamInput) (*model.Exam, error) {
	var exam model.Exam
	if err := s.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, lookupError("exam", err)
	}
	if err := validateExamInput(in); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).
		Model(&exam).
		Select("name", "description", "duration", "passing_score", "is_required", "sort_order", "is_active").
		Updates(&model.Exam{
			Name:         strings.TrimSpace(in.Name),
			Description:  in.Description,
			Duration:     in.Duration,
			PassingScore: in.PassingScore,
			IsRequired:   in.IsRequired,
			Order:        in.Order,
			IsActive:     activeOr(in.IsActive, exam.IsActive),
		}).Error
	if err != nil {
		return nil, s.writeError("failed to update exam", err)
	}
	return s.GetExam(ctx, id)
}

// DeleteExam removes an exam and its questions when nobody has attempted it
func (s *CatalogService) DeleteExam(ctx context.Context, id uint) error {
	var exam model.Exam
	if err := s.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return lookupError("exam", err)
	}

	guards := []deleteGuard{
		{&model.ExamAttempt{}, "exam_id = ?", "exam has attempts"},
	}
	if err := s.checkGuards(ctx, id, guards); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exam_id = ?", id).Delete(&model.ExamQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&exam).Error
	})
	if err != nil {
		return s.writeError("failed to delete exam", err)
	}
	return nil
}

func validateExamInput(in ExamInput) error {
	if in.Duration <= 0 {
		return errInvalidInput("duration must be greater than zero")
	}
	if in.PassingScore < 0 || in.PassingScore > 100 {
		return errInvalidInput("passing score must be between 0 and 100")
	}
	return nil
}

// ==================== Questions ====================

// ListQuestions returns the questions of an exam, grading keys included
func (s *CatalogService) ListQuestions(ctx context.Context, examID uint) ([]model.ExamQuestion, error) {
	if err := s.exists(ctx, &model.Exam{}, "exam", examID); err != nil {
		return nil, err
	}
	var questions []model.ExamQuestion
	err := s.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("sort_order ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, errInternal("failed to list questions", err)
	}
	return questions, nil
}

// AddQuestion appends a question to an exam
func (s *CatalogService) AddQuestion(ctx context.Context, examID uint, in QuestionInput) (*model.ExamQuestion, error) {
	if err := s.exists(ctx, &model.Exam{}, "exam", examID); err != nil {
		return nil, err
	}

	question := model.ExamQuestion{ExamID: examID}
	if err := applyQuestionInput(&question, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&question).Error; err != nil {
		return nil, s.writeError("failed to create question", err)
	}
	return &question, nil
}

// UpdateQuestion replaces a question's writable fields
func (s *CatalogService) UpdateQuestion(ctx context.Context, id uint, in QuestionInput) (*model.ExamQuestion, error) {
	var question model.ExamQuestion
	if err := s.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, lookupError("question", err)
	}
	if err := applyQuestionInput(&question, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(&question).Error; err != nil {
		return nil, s.writeError("failed to update question", err)
	}
	return &question, nil
}

// DeleteQuestion removes a question
func (s *CatalogService) DeleteQuestion(ctx context.Context, id uint) error {
	var question model.ExamQuestion
	if err := s.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return lookupError("question", err)
	}
	if err := s.db.WithContext(ctx).Delete(&question).Error; err != nil {
		return s.writeError("failed to delete question", err)
	}
	return nil
}

// applyQuestionInput validates in against its question type and copies it
// onto q. Options are kept only for MULTIPLE_CHOICE.
func applyQuestionInput(q *model.ExamQuestion, in QuestionInput) error {
	if strings.TrimSpace(in.Question) == "" {
		return errInvalidInput("question text is required")
	}
	if in.Points <= 0 {
		return errInvalidInput("points must be greater than zero")
	}

	answer := strings.TrimSpace(in.CorrectAnswer)
	var options []string

	switch in.Type {
	case model.QuestionTypeMultipleChoice:
		if len(in.Options) < 2 {
			return errInvalidInput("multiple choice questions need at least two options")
		}
		idx, err := strconv.Atoi(answer)
		if err != nil || idx < 0 || idx >= len(in.Options) {
			return errInvalidInput("correct answer must be an option index").
				with("options", len(in.Options))
		}
		answer = strconv.Itoa(idx)
		options = in.Options
	case model.QuestionTypeTrueFalse:
		answer = strings.ToLower(answer)
		if answer != "true" && answer != "false" {
			return errInvalidInput(`correct answer must be "true" or "false"`)
		}
	case model.QuestionTypeEssay:
		if answer == "" {
			return errInvalidInput("essay questions need a reference answer")
		}
	default:
		return errInvalidInput("unknown question type").with("type", in.Type)
	}

	q.Question = in.Question
	q.Type = in.Type
	q.CorrectAnswer = answer
	q.Points = in.Points
	q.Order = in.Order
	q.SetOptions(options)
	return nil
}

// ==================== helpers ====================

// deleteGuard blocks a delete while any row of model matches where
type deleteGuard struct {
	model   interface{}
	where   string
	message string
}

func (s *CatalogService) checkGuards(ctx context.Context, id uint, guards []deleteGuard) error {
	for _, g := range guards {
		var count int64
		if err := s.db.WithContext(ctx).Model(g.model).Where(g.where, id).Count(&count).Error; err != nil {
			return errInternal("failed to check dependents", err)
		}
		if count > 0 {
			return errConflict("cannot delete: " + g.message).with("count", count)
		}
	}
	return nil
}

func (s *CatalogService) exists(ctx context.Context, m interface{}, entity string, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(m).Where("id = ?", id).Count(&count).Error; err != nil {
		return errInternal("failed to fetch "+entity, err)
	}
	if count == 0 {
		return errNotFound(entity)
	}
	return nil
}

func (s *CatalogService) ensureUnique(ctx context.Context, m interface{}, entity, where string, args ...interface{}) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(m).Where(where, args...).Count(&count).Error; err != nil {
		return errInternal("failed to check "+entity+" name", err)
	}
	if count > 0 {
		return errConflict(entity + " with this name already exists")
	}
	return nil
}

// walkChain follows prerequisite_id from startID and fails when it reaches
// selfID. The visited set stops on cycles already present in the table.
func (s *CatalogService) walkChain(ctx context.Context, m interface{}, entity string, selfID, startID uint) error {
	visited := map[uint]bool{}
	current := &startID

	for current != nil {
		if *current == selfID {
			return errInvalidInput("prerequisite would create a cycle").
				with("entity", entity).
				with("prerequisite_id", startID)
		}
		if visited[*current] {
			return nil
		}
		visited[*current] = true

		var next struct{ PrerequisiteID *uint }
		err := s.db.WithContext(ctx).
			Model(m).
			Select("prerequisite_id").
			Where("id = ?", *current).
			Take(&next).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return errInternal("failed to walk prerequisite chain", err)
		}
		current = next.PrerequisiteID
	}
	return nil
}

func (s *CatalogService) writeError(message string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errConflict("a record with these values already exists")
	}
	s.log.Error(message, zap.Error(err))
	return errInternal(message, err)
}
