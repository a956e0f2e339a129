package database

import (
	"testing"

	"github.com/sahilchouksey/learnpath/model"
	"github.com/sahilchouksey/learnpath/utils/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedAll_Idempotent(t *testing.T) {
	auth.BcryptCost = bcrypt.MinCost
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD", "supersecret")
	t.Setenv("STUDENT_EMAIL", "student@example.com")
	t.Setenv("STUDENT_PASSWORD", "studentpass")

	store := openTestStore(t)
	db := store.GetDB()

	require.NoError(t, RunSeeds(db, zap.NewNop()))
	require.NoError(t, RunSeeds(db, zap.NewNop()))

	var admins int64
	require.NoError(t, db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&admins).Error)
	assert.Equal(t, int64(1), admins)

	var students int64
	require.NoError(t, db.Model(&model.User{}).Where("role = ?", model.RoleStudent).Count(&students).Error)
	assert.Equal(t, int64(1), students)

	var majors []model.Major
	require.NoError(t, db.Find(&majors).Error)
	require.Len(t, majors, 1)

	var subjects []model.Subject
	require.NoError(t, db.Order("sort_order").Find(&subjects).Error)
	require.Len(t, subjects, 2)
	assert.Nil(t, subjects[0].PrerequisiteID)
	require.NotNil(t, subjects[1].PrerequisiteID)
	assert.Equal(t, subjects[0].ID, *subjects[1].PrerequisiteID)

	var lessons int64
	require.NoError(t, db.Model(&model.Lesson{}).Count(&lessons).Error)
	assert.Equal(t, int64(6), lessons)
}

func TestSeedAdminUser_SkipsWithoutCredentials(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_PASSWORD", "")

	store := openTestStore(t)
	require.NoError(t, NewSeeder(store.GetDB(), zap.NewNop()).SeedAdminUser())

	var users int64
	require.NoError(t, store.GetDB().Model(&model.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
