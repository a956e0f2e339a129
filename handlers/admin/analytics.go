package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/model"
	"github.com/sahilchouksey/learnpath/utils/response"
	"gorm.io/gorm"
)

// OverviewStats are catalog and learning totals
type OverviewStats struct {
	Users             int64 `json:"users"`
	Majors            int64 `json:"majors"`
	Subjects          int64 `json:"subjects"`
	Lessons           int64 `json:"lessons"`
	Exams             int64 `json:"exams"`
	Enrollments       int64 `json:"enrollments"`
	LessonsStarted    int64 `json:"lessons_started"`
	LessonsCompleted  int64 `json:"lessons_completed"`
	AttemptsStarted   int64 `json:"attempts_started"`
	AttemptsSubmitted int64 `json:"attempts_submitted"`
	AttemptsPassed    int64 `json:"attempts_passed"`
	PassRate          int   `json:"pass_rate"`
}

// GetOverview handles GET /api/v1/admin/analytics/overview
func (h *AdminHandler) GetOverview(c *fiber.Ctx) error {
	db := h.db.WithContext(c.UserContext())
	var stats OverviewStats

	counts := []*gorm.DB{
		db.Model(&model.User{}).Count(&stats.Users),
		db.Model(&model.Major{}).Count(&stats.Majors),
		db.Model(&model.Subject{}).Count(&stats.Subjects),
		db.Model(&model.Lesson{}).Count(&stats.Lessons),
		db.Model(&model.Exam{}).Count(&stats.Exams),
		db.Model(&model.Enrollment{}).Count(&stats.Enrollments),
		db.Model(&model.LessonProgress{}).Count(&stats.LessonsStarted),
		db.Model(&model.LessonProgress{}).Where("completed = ?", true).Count(&stats.LessonsCompleted),
		db.Model(&model.ExamAttempt{}).Count(&stats.AttemptsStarted),
		db.Model(&model.ExamAttempt{}).Where("submitted_at IS NOT NULL").Count(&stats.AttemptsSubmitted),
		db.Model(&model.ExamAttempt{}).Where("passed = ?", true).Count(&stats.AttemptsPassed),
	}
	for _, q := range counts {
		if q.Error != nil {
			return response.InternalServerError(c, "Failed to compute statistics")
		}
	}

	if stats.AttemptsSubmitted > 0 {
		stats.PassRate = int(stats.AttemptsPassed * 100 / stats.AttemptsSubmitted)
	}

	return response.Success(c, stats)
}
