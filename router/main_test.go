package router

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/api"
	"github.com/sahilchouksey/learnpath/config"
	"github.com/sahilchouksey/learnpath/database"
	"github.com/sahilchouksey/learnpath/model"
	"github.com/sahilchouksey/learnpath/services"
	"github.com/sahilchouksey/learnpath/utils/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func (e envelope) code() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Code
}

type staticVerifier struct{ match bool }

func (v staticVerifier) Verify(_ context.Context, _ uint, _ []byte) (*services.FaceMatch, error) {
	if v.match {
		return &services.FaceMatch{Match: true, Confidence: 0.97}, nil
	}
	return &services.FaceMatch{Match: false, Confidence: 0.2}, nil
}

type testServer struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T, verifier services.FaceVerifier) *testServer {
	t.Helper()
	auth.BcryptCost = bcrypt.MinCost

	store, err := database.OpenSQLite(":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	server := api.NewAPIServer(":0", zap.NewNop())
	SetupRoutes(server.GetEngine(), Dependencies{
		Store:        store,
		Env:          &config.EnvironmentVariable{JWT_SECRET: "test-secret", JWT_ISSUER: "learnpath-test"},
		Log:          zap.NewNop(),
		FaceVerifier: verifier,
	})

	return &testServer{t: t, app: server.GetEngine(), db: store.GetDB()}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(raw) > 0 {
		require.NoError(s.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

// ok asserts a 2xx and decodes data into dst
func (s *testServer) ok(status int, env envelope, dst interface{}) {
	s.t.Helper()
	require.True(s.t, status >= 200 && status < 300, "status %d: %+v", status, env.Error)
	require.True(s.t, env.Success)
	if dst != nil {
		require.NoError(s.t, json.Unmarshal(env.Data, dst))
	}
}

type idOnly struct {
	ID uint `json:"id"`
}

type session struct {
	Tokens struct {
		Access  struct{ Token string } `json:"access"`
		Refresh struct{ Token string } `json:"refresh"`
	} `json:"tokens"`
}

func (s *testServer) adminToken() string {
	s.t.Helper()
	hash, err := auth.HashPassword("admin-password")
	require.NoError(s.t, err)
	require.NoError(s.t, s.db.Create(&model.User{
		Email: "admin@example.com", PasswordHash: hash, Name: "Admin", Role: model.RoleAdmin,
	}).Error)

	var out session
	status, env := s.do("POST", "/api/v1/auth/login", "", fiber.Map{"email": "admin@example.com", "password": "admin-password"})
	s.ok(status, env, &out)
	return out.Tokens.Access.Token
}

func (s *testServer) studentToken(email string) string {
	s.t.Helper()
	var out session
	status, env := s.do("POST", "/api/v1/auth/register", "", fiber.Map{"email": email, "password": "student-pass", "name": "Student"})
	s.ok(status, env, &out)
	return out.Tokens.Access.Token
}

type catalogIDs struct {
	major, subject, lesson1, lesson2, exam, question uint
}

func (s *testServer) buildCatalog(admin string) catalogIDs {
	s.t.Helper()
	var ids catalogIDs
	var got idOnly

	status, env := s.do("POST", "/api/v1/majors", admin, fiber.Map{"name": "Physics"})
	s.ok(status, env, &got)
	ids.major = got.ID

	status, env = s.do("POST", fmt.Sprintf("/api/v1/majors/%d/subjects", ids.major), admin, fiber.Map{"name": "Mechanics"})
	s.ok(status, env, &got)
	ids.subject = got.ID

	status, env = s.do("POST", fmt.Sprintf("/api/v1/subjects/%d/lessons", ids.subject), admin, fiber.Map{"name": "Kinematics", "duration": 90})
	s.ok(status, env, &got)
	ids.lesson1 = got.ID

	status, env = s.do("POST", fmt.Sprintf("/api/v1/subjects/%d/lessons", ids.subject), admin,
		fiber.Map{"name": "Dynamics", "duration": 30, "prerequisite_id": ids.lesson1})
	s.ok(status, env, &got)
	ids.lesson2 = got.ID

	status, env = s.do("POST", fmt.Sprintf("/api/v1/subjects/%d/exams", ids.subject), admin,
		fiber.Map{"name": "Midterm", "duration": 30, "passing_score": 50, "is_required": true})
	s.ok(status, env, &got)
	ids.exam = got.ID

	status, env = s.do("POST", fmt.Sprintf("/api/v1/exams/%d/questions", ids.exam), admin,
		fiber.Map{"question": "Force equals mass times acceleration", "type": "TRUE_FALSE", "correct_answer": "true", "points": 2})
	s.ok(status, env, &got)
	ids.question = got.ID

	return ids
}

func (s *testServer) finishLesson(token string, lessonID uint, watch interface{}) {
	s.t.Helper()
	base := fmt.Sprintf("/api/v1/lessons/%d", lessonID)

	status, env := s.do("POST", base+"/start", token, nil)
	s.ok(status, env, nil)
	status, env = s.do("PUT", base+"/watch-time", token, fiber.Map{"watch_time": watch})
	s.ok(status, env, nil)
	status, env = s.do("POST", base+"/verify-after", token, fiber.Map{"image": base64.StdEncoding.EncodeToString([]byte("face"))})
	s.ok(status, env, nil)
	status, env = s.do("POST", base+"/complete", token, nil)
	s.ok(status, env, nil)
}

func TestLearningFlow(t *testing.T) {
	s := newTestServer(t, staticVerifier{match: true})
	admin := s.adminToken()
	ids := s.buildCatalog(admin)
	student := s.studentToken("student@example.com")

	lesson1 := fmt.Sprintf("/api/v1/lessons/%d", ids.lesson1)
	lesson2 := fmt.Sprintf("/api/v1/lessons/%d", ids.lesson2)
	enroll := fmt.Sprintf("/api/v1/majors/%d/enroll", ids.major)

	status, env := s.do("POST", lesson1+"/start", student, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "REQUIRES_ENROLLMENT", env.code())

	status, env = s.do("POST", enroll, student, nil)
	s.ok(status, env, nil)
	status, env = s.do("POST", enroll, student, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.code())

	status, env = s.do("POST", lesson2+"/start", student, nil)
	assert.Equal(t, fiber.StatusLocked, status)
	require.Equal(t, "LOCKED", env.code())
	assert.EqualValues(t, ids.lesson1, env.Error.Details["prerequisite_id"])
	assert.Equal(t, "Kinematics", env.Error.Details["prerequisite_name"])

	var progress struct {
		WatchTime          float64 `json:"watch_time"`
		Completed          bool    `json:"completed"`
		FaceVerifiedBefore bool    `json:"face_verified_before"`
	}
	status, env = s.do("POST", lesson1+"/start", student, nil)
	s.ok(status, env, &progress)
	assert.True(t, progress.FaceVerifiedBefore)
	assert.Zero(t, progress.WatchTime)

	status, env = s.do("PUT", lesson1+"/watch-time", student, fiber.Map{"watch_time": "abc"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", env.code())

	var watch struct {
		PercentComplete   int  `json:"percent_complete"`
		RequiredWatchTime int  `json:"required_watch_time"`
		CanComplete       bool `json:"can_complete"`
	}
	status, env = s.do("PUT", lesson1+"/watch-time", student, fiber.Map{"watch_time": 59})
	s.ok(status, env, &watch)
	assert.Equal(t, 60, watch.RequiredWatchTime)
	assert.False(t, watch.CanComplete)

	status, env = s.do("POST", lesson1+"/complete", student, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.Equal(t, "INSUFFICIENT_WATCH_TIME", env.code())
	assert.EqualValues(t, 59, env.Error.Details["current"])
	assert.EqualValues(t, 60, env.Error.Details["required"])

	status, env = s.do("PUT", lesson1+"/watch-time", student, fiber.Map{"watch_time": "60"})
	s.ok(status, env, &watch)
	assert.True(t, watch.CanComplete)
	assert.Equal(t, 67, watch.PercentComplete)

	status, env = s.do("POST", lesson1+"/complete", student, nil)
	assert.Equal(t, fiber.StatusPreconditionRequired, status)
	assert.Equal(t, "REQUIRES_FACE_VERIFICATION", env.code())

	status, env = s.do("POST", lesson1+"/verify-after", student, fiber.Map{"image": base64.StdEncoding.EncodeToString([]byte("face"))})
	s.ok(status, env, nil)

	status, env = s.do("POST", lesson1+"/complete", student, nil)
	s.ok(status, env, &progress)
	assert.True(t, progress.Completed)

	examBase := fmt.Sprintf("/api/v1/exams/%d", ids.exam)
	status, env = s.do("POST", examBase+"/start", student, nil)
	assert.Equal(t, fiber.StatusLocked, status)
	assert.Equal(t, "LOCKED", env.code())

	s.finishLesson(student, ids.lesson2, 20)

	var started struct {
		AttemptID uint                     `json:"attempt_id"`
		Questions []map[string]interface{} `json:"questions"`
	}
	status, env = s.do("POST", examBase+"/start", student, nil)
	assert.Equal(t, fiber.StatusCreated, status)
	s.ok(status, env, &started)
	require.Len(t, started.Questions, 1)
	assert.NotContains(t, started.Questions[0], "correct_answer")

	submit := fmt.Sprintf("%s/attempts/%d/submit", examBase, started.AttemptID)
	answers := fiber.Map{"answers": fiber.Map{fmt.Sprint(ids.question): "TRUE"}}

	var grade struct {
		Score  int  `json:"score"`
		Passed bool `json:"passed"`
	}
	status, env = s.do("POST", submit, student, answers)
	s.ok(status, env, &grade)
	assert.Equal(t, 100, grade.Score)
	assert.True(t, grade.Passed)

	status, env = s.do("POST", submit, student, answers)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "ALREADY_SUBMITTED", env.code())

	status, env = s.do("GET", fmt.Sprintf("/api/v1/attempts/%d/result", started.AttemptID), student, nil)
	s.ok(status, env, &grade)
	assert.Equal(t, 100, grade.Score)

	var again struct {
		AlreadyPassed bool `json:"already_passed"`
		AttemptID     uint `json:"attempt_id"`
	}
	status, env = s.do("POST", examBase+"/start", student, nil)
	assert.Equal(t, fiber.StatusOK, status)
	s.ok(status, env, &again)
	assert.True(t, again.AlreadyPassed)
	assert.Equal(t, started.AttemptID, again.AttemptID)

	var outline struct {
		LessonsTotal     int `json:"lessons_total"`
		LessonsCompleted int `json:"lessons_completed"`
		Exams            []struct {
			Passed bool `json:"passed"`
		} `json:"exams"`
	}
	status, env = s.do("GET", fmt.Sprintf("/api/v1/subjects/%d/outline", ids.subject), student, nil)
	s.ok(status, env, &outline)
	assert.Equal(t, 2, outline.LessonsTotal)
	assert.Equal(t, 2, outline.LessonsCompleted)
	require.Len(t, outline.Exams, 1)
	assert.True(t, outline.Exams[0].Passed)

	var audits int64
	require.NoError(t, s.db.Model(&model.AdminAuditLog{}).Count(&audits).Error)
	assert.Equal(t, int64(6), audits)
}

func TestAttemptResult_OtherUserForbidden(t *testing.T) {
	s := newTestServer(t, staticVerifier{match: true})
	ids := s.buildCatalog(s.adminToken())
	owner := s.studentToken("owner@example.com")
	other := s.studentToken("other@example.com")

	status, env := s.do("POST", fmt.Sprintf("/api/v1/majors/%d/enroll", ids.major), owner, nil)
	s.ok(status, env, nil)
	s.finishLesson(owner, ids.lesson1, 60)
	s.finishLesson(owner, ids.lesson2, 20)

	var started struct {
		AttemptID uint `json:"attempt_id"`
	}
	status, env = s.do("POST", fmt.Sprintf("/api/v1/exams/%d/start", ids.exam), owner, nil)
	s.ok(status, env, &started)

	status, env = s.do("GET", fmt.Sprintf("/api/v1/attempts/%d/result", started.AttemptID), owner, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "NOT_SUBMITTED", env.code())

	status, env = s.do("GET", fmt.Sprintf("/api/v1/attempts/%d/result", started.AttemptID), other, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.code())
}

func TestVerifyAfter_FaceOutcomes(t *testing.T) {
	image := fiber.Map{"image": base64.StdEncoding.EncodeToString([]byte("face"))}

	t.Run("no verifier", func(t *testing.T) {
		s := newTestServer(t, nil)
		ids := s.buildCatalog(s.adminToken())
		student := s.studentToken("s@example.com")
		base := fmt.Sprintf("/api/v1/lessons/%d", ids.lesson1)
		status, env := s.do("POST", fmt.Sprintf("/api/v1/majors/%d/enroll", ids.major), student, nil)
		s.ok(status, env, nil)
		status, env = s.do("POST", base+"/start", student, nil)
		s.ok(status, env, nil)
		status, env = s.do("PUT", base+"/watch-time", student, fiber.Map{"watch_time": 90})
		s.ok(status, env, nil)

		status, env = s.do("POST", base+"/verify-after", student, image)
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
		assert.Equal(t, "SERVICE_UNAVAILABLE", env.code())
	})

	for _, tc := range []struct {
		name     string
		verifier services.FaceVerifier
	}{
		{"too early with verifier", staticVerifier{match: false}},
		{"too early without verifier", nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, tc.verifier)
			ids := s.buildCatalog(s.adminToken())
			student := s.studentToken("s@example.com")
			base := fmt.Sprintf("/api/v1/lessons/%d", ids.lesson1)

			status, env := s.do("POST", fmt.Sprintf("/api/v1/majors/%d/enroll", ids.major), student, nil)
			s.ok(status, env, nil)
			status, env = s.do("POST", base+"/start", student, nil)
			s.ok(status, env, nil)
			status, env = s.do("PUT", base+"/watch-time", student, fiber.Map{"watch_time": 55})
			s.ok(status, env, nil)

			status, env = s.do("POST", base+"/verify-after", student, image)
			assert.Equal(t, fiber.StatusUnprocessableEntity, status)
			require.Equal(t, "INSUFFICIENT_WATCH_TIME", env.code())
			assert.EqualValues(t, 55, env.Error.Details["current"])
			assert.EqualValues(t, 60, env.Error.Details["required"])

			status, env = s.do("POST", "/api/v1/lessons/424242/verify-after", student, image)
			assert.Equal(t, fiber.StatusNotFound, status)
			assert.Equal(t, "NOT_FOUND", env.code())
		})
	}

	t.Run("no match", func(t *testing.T) {
		s := newTestServer(t, staticVerifier{match: false})
		ids := s.buildCatalog(s.adminToken())
		student := s.studentToken("s@example.com")
		base := fmt.Sprintf("/api/v1/lessons/%d", ids.lesson1)

		status, env := s.do("POST", fmt.Sprintf("/api/v1/majors/%d/enroll", ids.major), student, nil)
		s.ok(status, env, nil)
		status, env = s.do("POST", base+"/start", student, nil)
		s.ok(status, env, nil)
		status, env = s.do("PUT", base+"/watch-time", student, fiber.Map{"watch_time": 90})
		s.ok(status, env, nil)

		status, env = s.do("POST", base+"/verify-after", student, image)
		assert.Equal(t, fiber.StatusPreconditionRequired, status)
		require.Equal(t, "REQUIRES_FACE_VERIFICATION", env.code())
		assert.InDelta(t, 0.2, env.Error.Details["confidence"], 1e-9)

		var row model.LessonProgress
		require.NoError(t, s.db.Where("lesson_id = ?", ids.lesson1).First(&row).Error)
		assert.False(t, row.FaceVerifiedAfter)
	})

	t.Run("missing image", func(t *testing.T) {
		s := newTestServer(t, staticVerifier{match: true})
		ids := s.buildCatalog(s.adminToken())
		student := s.studentToken("s@example.com")

		status, _ := s.do("POST", fmt.Sprintf("/api/v1/lessons/%d/verify-after", ids.lesson1), student, fiber.Map{})
		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t, nil)
	student := s.studentToken("s@example.com")

	status, env := s.do("POST", "/api/v1/majors", "", fiber.Map{"name": "Chemistry"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.code())

	status, env = s.do("POST", "/api/v1/majors", student, fiber.Map{"name": "Chemistry"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.code())

	status, _ = s.do("GET", "/api/v1/majors", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = s.do("POST", "/api/v1/auth/logout", student, nil)
	s.ok(status, env, nil)
	status, env = s.do("GET", "/api/v1/auth/profile", student, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", env.Error.Message)
}

func TestCatalogValidation(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.adminToken()

	status, env := s.do("POST", "/api/v1/majors", admin, fiber.Map{"name": ""})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.Equal(t, "VALIDATION_ERROR", env.code())
	assert.Contains(t, env.Error.Details, "name")

	ids := s.buildCatalog(admin)
	status, env = s.do("PUT", fmt.Sprintf("/api/v1/lessons/%d", ids.lesson1), admin,
		fiber.Map{"name": "Kinematics", "duration": 90, "prerequisite_id": ids.lesson2})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", env.code())

	status, env = s.do("DELETE", fmt.Sprintf("/api/v1/majors/%d", ids.major), admin, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.code())
}

func TestPing(t *testing.T) {
	s := newTestServer(t, nil)
	status, env := s.do("GET", "/ping", "", nil)
	s.ok(status, env, nil)
}

func TestWatchTime_RejectsNonNumeric(t *testing.T) {
	s := newTestServer(t, staticVerifier{match: true})
	ids := s.buildCatalog(s.adminToken())
	student := s.studentToken("w@example.com")
	base := fmt.Sprintf("/api/v1/lessons/%d", ids.lesson1)

	status, env := s.do("POST", fmt.Sprintf("/api/v1/majors/%d/enroll", ids.major), student, nil)
	s.ok(status, env, nil)
	status, env = s.do("POST", base+"/start", student, nil)
	s.ok(status, env, nil)
	status, env = s.do("PUT", base+"/watch-time", student, fiber.Map{"watch_time": 45})
	s.ok(status, env, nil)

	for _, bad := range []interface{}{"", "   ", true, false, "forty", nil} {
		status, env = s.do("PUT", base+"/watch-time", student, fiber.Map{"watch_time": bad})
		assert.Equal(t, fiber.StatusBadRequest, status, "%v", bad)
		assert.Equal(t, "INVALID_INPUT", env.code(), "%v", bad)
	}

	var row model.LessonProgress
	require.NoError(t, s.db.Where("lesson_id = ?", ids.lesson1).First(&row).Error)
	assert.InDelta(t, 45, row.WatchTime, 1e-9)
}

func TestCatalog_LooseFlags(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.adminToken()

	var hidden model.Major
	status, env := s.do("POST", "/api/v1/majors", admin, fiber.Map{"name": "Hidden", "is_active": "false"})
	s.ok(status, env, &hidden)
	assert.False(t, hidden.IsActive)

	var shown model.Major
	status, env = s.do("POST", "/api/v1/majors", admin, fiber.Map{"name": "Shown", "is_active": 1})
	s.ok(status, env, &shown)
	assert.True(t, shown.IsActive)

	var listed []model.Major
	status, env = s.do("GET", "/api/v1/majors", "", nil)
	s.ok(status, env, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, shown.ID, listed[0].ID)

	status, env = s.do("PUT", fmt.Sprintf("/api/v1/majors/%d", hidden.ID), admin, fiber.Map{"name": "Hidden", "is_active": " TRUE "})
	s.ok(status, env, &hidden)
	assert.True(t, hidden.IsActive)

	var subject idOnly
	status, env = s.do("POST", fmt.Sprintf("/api/v1/majors/%d/subjects", shown.ID), admin, fiber.Map{"name": "Optics"})
	s.ok(status, env, &subject)

	var exam model.Exam
	status, env = s.do("POST", fmt.Sprintf("/api/v1/subjects/%d/exams", subject.ID), admin,
		fiber.Map{"name": "Quiz", "duration": 10, "passing_score": 50, "is_required": "true", "is_active": "0"})
	s.ok(status, env, &exam)
	assert.True(t, exam.IsRequired)
	assert.False(t, exam.IsActive)

	for _, bad := range []interface{}{"maybe", "", []int{1}} {
		status, env = s.do("POST", "/api/v1/majors", admin, fiber.Map{"name": "Broken", "is_active": bad})
		assert.Equal(t, fiber.StatusBadRequest, status, "%v", bad)
		assert.Equal(t, "INVALID_INPUT", env.code(), "%v", bad)
	}
}
