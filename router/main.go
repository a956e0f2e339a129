package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/config"
	"github.com/sahilchouksey/learnpath/database"
	"github.com/sahilchouksey/learnpath/handlers"
	admin_handlers "github.com/sahilchouksey/learnpath/handlers/admin"
	auth_handlers "github.com/sahilchouksey/learnpath/handlers/auth"
	catalog_handlers "github.com/sahilchouksey/learnpath/handlers/catalog"
	enrollment_handlers "github.com/sahilchouksey/learnpath/handlers/enrollment"
	exam_handlers "github.com/sahilchouksey/learnpath/handlers/exam"
	learning_handlers "github.com/sahilchouksey/learnpath/handlers/learning"
	"github.com/sahilchouksey/learnpath/services"
	"github.com/sahilchouksey/learnpath/services/cron"
	"github.com/sahilchouksey/learnpath/utils/auth"
	"github.com/sahilchouksey/learnpath/utils/cache"
	"github.com/sahilchouksey/learnpath/utils/middleware"
	"go.uber.org/zap"
)

// Dependencies is everything the routes are built from
type Dependencies struct {
	Store database.Storage
	Env   *config.EnvironmentVariable
	Log   *zap.Logger
	// Cache backs login lockouts; nil disables them.
	Cache cache.Store
	// FaceVerifier is the face collaborator; nil answers verify-after with 503.
	FaceVerifier services.FaceVerifier
	// Cron runs the maintenance jobs; nil disables the job endpoints.
	Cron *cron.CronManager
}

// SetupRoutes mounts every /api/v1 route on app
func SetupRoutes(app *fiber.App, deps Dependencies) {
	log := deps.Log
	db := deps.Store.GetDB()

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: deps.Env.JWT_SECRET,
		Issuer: deps.Env.JWT_ISSUER,
	})
	blacklist := auth.NewBlacklist(db)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, blacklist, db)

	var bruteForceProtection *middleware.BruteForceProtection
	if deps.Cache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(deps.Cache, log)
	} else {
		log.Warn("no cache configured, login brute force protection is disabled")
	}

	// Services
	resolver := services.NewPrerequisiteResolver(db)
	progressService := services.NewProgressService(db, resolver, log)
	examService := services.NewExamService(db, resolver, log)
	outlineService := services.NewOutlineService(db, resolver, log)
	enrollmentService := services.NewEnrollmentService(db, log)
	catalogService := services.NewCatalogService(db, log)
	faceCheckpoint := services.NewFaceCheckpoint(deps.FaceVerifier, progressService)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, blacklist, bruteForceProtection, log)
	learningHandler := learning_handlers.NewLearningHandler(progressService, faceCheckpoint, outlineService)
	examHandler := exam_handlers.NewExamHandler(examService)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(enrollmentService)
	catalogHandler := catalog_handlers.NewCatalogHandler(catalogService)
	adminHandler := admin_handlers.NewAdminHandler(db, blacklist, deps.Cron, log)

	required := authMiddleware.Required()
	adminOnly := authMiddleware.RequireAdmin()

	// admin wraps a catalog mutation with auth, role check and audit logging
	admin := func(action, resource string, h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{required, adminOnly, middleware.AdminAuditLog(db, log, action, resource), h}
	}

	app.Get("/ping", func(c *fiber.Ctx) error {
		return handlers.HandleCheckHealth(c, deps.Store)
	})

	api := app.Group("/api/v1")

	// Auth
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.Check(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", required, authHandler.Logout)
	authGroup.Get("/profile", required, authHandler.GetProfile)
	authGroup.Put("/profile", required, authHandler.UpdateProfile)
	authGroup.Post("/change-password", required, authHandler.ChangePassword)

	// Majors and enrollment
	api.Get("/majors", catalogHandler.ListMajors)
	api.Get("/majors/:id", catalogHandler.GetMajor)
	api.Post("/majors", admin("create", "major", catalogHandler.CreateMajor)...)
	api.Put("/majors/:id", admin("update", "major", catalogHandler.UpdateMajor)...)
	api.Delete("/majors/:id", admin("delete", "major", catalogHandler.DeleteMajor)...)
	api.Post("/majors/:id/enroll", required, enrollmentHandler.Enroll)
	api.Delete("/majors/:id/enroll", required, enrollmentHandler.Unenroll)
	api.Get("/enrollments", required, enrollmentHandler.ListEnrollments)

	// Subjects
	api.Get("/majors/:id/subjects", catalogHandler.ListSubjects)
	api.Post("/majors/:id/subjects", admin("create", "subject", catalogHandler.CreateSubject)...)
	api.Get("/subjects/:id", catalogHandler.GetSubject)
	api.Put("/subjects/:id", admin("update", "subject", catalogHandler.UpdateSubject)...)
	api.Delete("/subjects/:id", admin("delete", "subject", catalogHandler.DeleteSubject)...)
	api.Get("/subjects/:id/outline", required, learningHandler.GetOutline)

	// Lessons
	api.Get("/subjects/:id/lessons", catalogHandler.ListLessons)
	api.Post("/subjects/:id/lessons", admin("create", "lesson", catalogHandler.CreateLesson)...)
	api.Get("/lessons/:id", catalogHandler.GetLesson)
	api.Put("/lessons/:id", admin("update", "lesson", catalogHandler.UpdateLesson)...)
	api.Delete("/lessons/:id", admin("delete", "lesson", catalogHandler.DeleteLesson)...)

	// Lesson progress
	api.Post("/lessons/:id/start", required, learningHandler.StartLesson)
	api.Put("/lessons/:id/watch-time", required, learningHandler.UpdateWatchTime)
	api.Post("/lessons/:id/verify-after", required, learningHandler.VerifyAfter)
	api.Post("/lessons/:id/complete", required, learningHandler.CompleteLesson)
	api.Get("/lessons/:id/progress", required, learningHandler.GetProgress)

	// Exams
	api.Get("/subjects/:id/exams", catalogHandler.ListExams)
	api.Post("/subjects/:id/exams", admin("create", "exam", catalogHandler.CreateExam)...)
	api.Put("/exams/:id", admin("update", "exam", catalogHandler.UpdateExam)...)
	api.Delete("/exams/:id", admin("delete", "exam", catalogHandler.DeleteExam)...)
	api.Get("/exams/:id/questions", required, adminOnly, catalogHandler.ListQuestions)
	api.Post("/exams/:id/questions", admin("create", "question", catalogHandler.AddQuestion)...)
	api.Put("/questions/:id", admin("update", "question", catalogHandler.UpdateQuestion)...)
	api.Delete("/questions/:id", admin("delete", "question", catalogHandler.DeleteQuestion)...)

	// Attempts
	api.Post("/exams/:id/start", required, examHandler.StartExam)
	api.Post("/exams/:id/attempts/:attempt_id/submit", required, examHandler.SubmitExam)
	api.Get("/exams/:id/attempts", required, examHandler.ListAttempts)
	api.Get("/attempts/:attempt_id/result", required, examHandler.GetAttemptResult)

	// Admin views
	adminGroup := api.Group("/admin", required, adminOnly)
	adminGroup.Get("/majors", catalogHandler.ListAllMajors)
	adminGroup.Get("/exams/:id", catalogHandler.GetExam)
	adminGroup.Get("/users", adminHandler.ListUsers)
	adminGroup.Put("/users/:id/role", middleware.AdminAuditLog(db, log, "update_role", "user"), adminHandler.UpdateUserRole)
	adminGroup.Get("/audit-logs", adminHandler.ListAuditLogs)
	adminGroup.Get("/audit-logs/:id", adminHandler.GetAuditLog)
	adminGroup.Get("/analytics/overview", adminHandler.GetOverview)
	adminGroup.Get("/jobs", adminHandler.ListJobs)
	adminGroup.Get("/jobs/logs", adminHandler.ListJobLogs)
	adminGroup.Post("/jobs/:name/run", middleware.AdminAuditLog(db, log, "run_job", "cron_job"), adminHandler.RunJob)
}
