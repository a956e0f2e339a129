package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredWatchTime_CeilingOfTwoThirds(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 2, 3: 2, 4: 3, 10: 7, 45: 30, 90: 60, 91: 61}
	for duration, want := range cases {
		assert.Equal(t, want, RequiredWatchTime(duration), "duration %d", duration)
	}
}

func TestWatchTimeMeetsThreshold_Boundary(t *testing.T) {
	for duration := 1; duration <= 600; duration++ {
		required := int(math.Ceil(float64(duration) * 2 / 3))
		require.Equal(t, required, RequiredWatchTime(duration), "duration %d", duration)
		assert.True(t, WatchTimeMeetsThreshold(float64(required), duration), "duration %d", duration)
		assert.False(t, WatchTimeMeetsThreshold(float64(required-1), duration), "duration %d", duration)
	}

	assert.False(t, WatchTimeMeetsThreshold(59.9, 90))
	assert.True(t, WatchTimeMeetsThreshold(60.0, 90))
}

func TestPercentComplete(t *testing.T) {
	assert.Equal(t, 0, PercentComplete(10, 0))
	assert.Equal(t, 50, PercentComplete(45, 90))
	assert.Equal(t, 67, PercentComplete(60, 90))
	assert.Equal(t, 100, PercentComplete(90, 90))
}

func TestSubjectPrerequisiteSatisfied(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := NewPrerequisiteResolver(db)

	user := mkUser(t, db, "s@example.com")
	major := mkMajor(t, db, "Math")
	first := mkSubject(t, db, major.ID, "Algebra", nil)
	second := mkSubject(t, db, major.ID, "Calculus", uintPtr(first.ID))

	ok, err := r.SubjectPrerequisiteSatisfied(ctx, user.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, ok, "no prerequisite")

	ok, err = r.SubjectPrerequisiteSatisfied(ctx, user.ID, second.ID)
	require.NoError(t, err)
	assert.True(t, ok, "prerequisite subject without lessons is vacuously satisfied")

	l1 := mkLesson(t, db, first.ID, "L1", 30, nil)
	l2 := mkLesson(t, db, first.ID, "L2", 30, nil)

	ok, err = r.SubjectPrerequisiteSatisfied(ctx, user.ID, second.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	markCompleted(t, db, user.ID, l1)
	ok, err = r.SubjectPrerequisiteSatisfied(ctx, user.ID, second.ID)
	require.NoError(t, err)
	assert.False(t, ok, "one of two lessons done")

	markCompleted(t, db, user.ID, l2)
	ok, err = r.SubjectPrerequisiteSatisfied(ctx, user.ID, second.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubjectPrerequisiteSatisfied_IgnoresInactiveLessons(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := NewPrerequisiteResolver(db)

	user := mkUser(t, db, "s@example.com")
	major := mkMajor(t, db, "Math")
	first := mkSubject(t, db, major.ID, "Algebra", nil)
	second := mkSubject(t, db, major.ID, "Calculus", uintPtr(first.ID))

	active := mkLesson(t, db, first.ID, "Active", 30, nil)
	retired := mkLesson(t, db, first.ID, "Retired", 30, nil)
	require.NoError(t, db.Model(&retired).Update("is_active", false).Error)

	markCompleted(t, db, user.ID, active)
	ok, err := r.SubjectPrerequisiteSatisfied(ctx, user.ID, second.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLessonPrerequisiteSatisfied(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := NewPrerequisiteResolver(db)

	user := mkUser(t, db, "s@example.com")
	major := mkMajor(t, db, "Math")
	subject := mkSubject(t, db, major.ID, "Algebra", nil)
	a := mkLesson(t, db, subject.ID, "A", 30, nil)
	b := mkLesson(t, db, subject.ID, "B", 30, uintPtr(a.ID))

	ok, err := r.LessonPrerequisiteSatisfied(ctx, user.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.LessonPrerequisiteSatisfied(ctx, user.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok, "no progress row is not satisfied")

	markCompleted(t, db, user.ID, a)
	ok, err = r.LessonPrerequisiteSatisfied(ctx, user.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExamEligible(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := NewPrerequisiteResolver(db)

	user := mkUser(t, db, "s@example.com")
	major := mkMajor(t, db, "Math")
	empty := mkSubject(t, db, major.ID, "Empty", nil)
	exam := mkExam(t, db, empty.ID, 50, false)

	ok, err := r.ExamEligible(ctx, user.ID, exam.ID)
	require.NoError(t, err)
	assert.True(t, ok, "subject with zero lessons is vacuously eligible")

	subject := mkSubject(t, db, major.ID, "Full", nil)
	lesson := mkLesson(t, db, subject.ID, "L", 10, nil)
	exam2 := mkExam(t, db, subject.ID, 50, false)

	ok, err = r.ExamEligible(ctx, user.ID, exam2.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	markCompleted(t, db, user.ID, lesson)
	ok, err = r.ExamEligible(ctx, user.ID, exam2.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolver_NotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := NewPrerequisiteResolver(db)

	_, err := r.SubjectPrerequisiteSatisfied(ctx, 1, 999)
	appErr(t, err, KindNotFound)
	_, err = r.LessonPrerequisiteSatisfied(ctx, 1, 999)
	appErr(t, err, KindNotFound)
	_, err = r.ExamEligible(ctx, 1, 999)
	appErr(t, err, KindNotFound)
}
