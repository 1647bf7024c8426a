package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/repository"
	"github.com/cvpilot/resume_go_server/internal/testutil"
)

func setupUserService(t *testing.T) (*gorm.DB, *UserService) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	service := NewUserService(
		repository.NewUserRepository(db),
		repository.NewLogRepository(db),
		nil,
	)
	return db, service
}

func TestUserService_GetProfile(t *testing.T) {
	db, service := setupUserService(t)

	user := testutil.TestUser(t, db)

	info, err := service.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Username, info.Username)
	assert.Equal(t, *user.Email, info.Email)

	_, err = service.GetProfile(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	db, service := setupUserService(t)

	user := testutil.TestUser(t, db)

	username := "renamed_user"
	bio := "喜欢写 Go"
	info, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{
		Username: &username,
		Bio:      &bio,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed_user", info.Username)
	assert.Equal(t, "喜欢写 Go", info.Bio)

	var row model.User
	require.NoError(t, db.First(&row, user.ID).Error)
	assert.Equal(t, "renamed_user", row.Username)
}

func TestUserService_UpdateProfile_UsernameTaken(t *testing.T) {
	db, service := setupUserService(t)

	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)

	_, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{
		Username: &other.Username,
	})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestUserService_UpdateProfile_SameUsernameAllowed(t *testing.T) {
	db, service := setupUserService(t)

	user := testutil.TestUser(t, db)

	// 提交自己现在的用户名不算冲突
	_, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{
		Username: &user.Username,
	})
	require.NoError(t, err)
}

func TestUserService_UploadAvatar_RequiresOSS(t *testing.T) {
	db, service := setupUserService(t)

	user := testutil.TestUser(t, db)

	_, err := service.UploadAvatar(user.ID, []byte("fake-image"), ".png")
	assert.ErrorIs(t, err, ErrOSSNotConfigured)
}

func TestUserService_GetQuotaUsage(t *testing.T) {
	db, service := setupUserService(t)

	user := testutil.TestUser(t, db)
	logRepo := repository.NewLogRepository(db)
	for i := 0; i < 3; i++ {
		require.NoError(t, logRepo.CreateQuotaUsage(&model.QuotaUsageLog{
			UserID:  user.ID,
			Feature: "resume_generate",
			Source:  model.QuotaSourceMembership,
			Status:  model.QuotaUsageStatusSuccess,
		}))
	}

	logs, total, err := service.GetQuotaUsage(user.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, logs, 2)
}
