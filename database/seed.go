package database

import (
	"fmt"
	"os"

	"github.com/sahilchouksey/learnpath/model"
	"github.com/sahilchouksey/learnpath/utils/auth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *zap.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

// SeedAll runs all seed functions. Every step is skipped when its data is
// already present, so running it twice is harmless.
func (s *Seeder) SeedAll() error {
	s.log.Info("starting database seeding")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := s.SeedStudentUser(); err != nil {
		return fmt.Errorf("failed to seed student user: %w", err)
	}
	if err := s.SeedDemoCatalog(); err != nil {
		return fmt.Errorf("failed to seed demo catalog: %w", err)
	}

	s.log.Info("database seeding completed")
	return nil
}

// SeedAdminUser creates the admin from ADMIN_EMAIL and ADMIN_PASSWORD
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("admin user already exists, skipping")
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		s.log.Warn("ADMIN_EMAIL and ADMIN_PASSWORD not set, skipping admin user creation")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         model.RoleAdmin,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	s.log.Info("admin user created", zap.String("email", email))
	return nil
}

// SeedStudentUser creates a demo student from STUDENT_EMAIL and STUDENT_PASSWORD
func (s *Seeder) SeedStudentUser() error {
	email := os.Getenv("STUDENT_EMAIL")
	password := os.Getenv("STUDENT_PASSWORD")
	if email == "" || password == "" {
		s.log.Info("STUDENT_EMAIL and STUDENT_PASSWORD not set, skipping demo student")
		return nil
	}

	var count int64
	if err := s.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("demo student already exists, skipping")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash student password: %w", err)
	}

	student := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Demo Student",
		Role:         model.RoleStudent,
	}
	if err := s.db.Create(&student).Error; err != nil {
		return err
	}

	s.log.Info("demo student created", zap.String("email", email))
	return nil
}

type seedLesson struct {
	name     string
	duration int
}

type seedQuestion struct {
	text    string
	qtype   model.QuestionType
	options []string
	answer  string
	points  int
}

type seedSubject struct {
	name      string
	lessons   []seedLesson
	questions []seedQuestion
}

// demoSubjects are chained: each subject and each lesson requires the one
// before it.
var demoSubjects = []seedSubject{
	{
		name: "Programming Fundamentals",
		lessons: []seedLesson{
			{"Variables and Types", 30},
			{"Control Flow", 45},
			{"Functions", 90},
		},
		questions: []seedQuestion{
			{"Which keyword declares a function in Go?", model.QuestionTypeMultipleChoice, []string{"def", "func", "fn"}, "1", 2},
			{"A for loop can replace a while loop in Go.", model.QuestionTypeTrueFalse, nil, "true", 3},
		},
	},
	{
		name: "Data Structures",
		lessons: []seedLesson{
			{"Arrays and Slices", 40},
			{"Maps", 35},
			{"Trees", 60},
		},
		questions: []seedQuestion{
			{"What is the zero value of a map?", model.QuestionTypeMultipleChoice, []string{"empty map", "nil", "panic"}, "1", 3},
			{"Name the traversal that visits the root first.", model.QuestionTypeEssay, nil, "preorder", 2},
		},
	},
}

// SeedDemoCatalog creates one demo major with two chained subjects
func (s *Seeder) SeedDemoCatalog() error {
	const majorName = "Computer Science"

	var count int64
	if err := s.db.Model(&model.Major{}).Where("name = ?", majorName).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("demo catalog already exists, skipping")
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		major := model.Major{Name: majorName, Description: "Demo program", IsActive: true}
		if err := tx.Create(&major).Error; err != nil {
			return err
		}

		var prevSubject *uint
		for i, spec := range demoSubjects {
			subject := model.Subject{
				MajorID:        major.ID,
				Name:           spec.name,
				PrerequisiteID: prevSubject,
				Order:          i + 1,
				IsActive:       true,
			}
			if err := tx.Create(&subject).Error; err != nil {
				return err
			}
			prevSubject = &subject.ID

			var prevLesson *uint
			for j, l := range spec.lessons {
				lesson := model.Lesson{
					SubjectID:      subject.ID,
					Name:           l.name,
					Duration:       l.duration,
					PrerequisiteID: prevLesson,
					Order:          j + 1,
					IsActive:       true,
				}
				if err := tx.Create(&lesson).Error; err != nil {
					return err
				}
				prevLesson = &lesson.ID
			}

			exam := model.Exam{
				SubjectID:    subject.ID,
				Name:         spec.name + " Final",
				Duration:     30,
				PassingScore: 60,
				IsRequired:   true,
				Order:        1,
				IsActive:     true,
			}
			if err := tx.Create(&exam).Error; err != nil {
				return err
			}

			for k, q := range spec.questions {
				question := model.ExamQuestion{
					ExamID:        exam.ID,
					Question:      q.text,
					Type:          q.qtype,
					CorrectAnswer: q.answer,
					Points:        q.points,
					Order:         k + 1,
				}
				question.SetOptions(q.options)
				if err := tx.Create(&question).Error; err != nil {
					return err
				}
			}
		}

		s.log.Info("demo catalog created", zap.String("major", majorName), zap.Int("subjects", len(demoSubjects)))
		return nil
	})
}

// RunSeeds is the entry point used by cmd/seed
func RunSeeds(db *gorm.DB, log *zap.Logger) error {
	return NewSeeder(db, log).SeedAll()
}
