package service

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/pkg/oss"
	"github.com/cvpilot/resume_go_server/internal/repository"
)

var (
	ErrInvalidImageType = errors.New("不支持的图片格式")
	ErrImageTooLarge    = errors.New("图片大小超过限制")
	ErrOSSNotConfigured = errors.New("对象存储未配置")
)

const maxAvatarSize = 2 * 1024 * 1024

type UserService struct {
	userRepo  *repository.UserRepository
	logRepo   *repository.LogRepository
	ossClient *oss.Client
}

func NewUserService(userRepo *repository.UserRepository, logRepo *repository.LogRepository, ossClient *oss.Client) *UserService {
	return &UserService{
		userRepo:  userRepo,
		logRepo:   logRepo,
		ossClient: ossClient,
	}
}

// GetProfile 获取用户资料
func (s *UserService) GetProfile(userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return buildUserInfo(user), nil
}

// UpdateProfile 更新用户资料
func (s *UserService) UpdateProfile(userID int64, req *dto.UpdateProfileRequest) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Username != nil && *req.Username != user.Username {
		exists, err := s.userRepo.ExistsByUsername(*req.Username)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrUsernameExists
		}
		user.Username = *req.Username
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return buildUserInfo(user), nil
}

// UploadAvatar 上传头像并替换旧文件
func (s *UserService) UploadAvatar(userID int64, data []byte, ext string) (string, error) {
	if s.ossClient == nil {
		return "", ErrOSSNotConfigured
	}
	if len(data) > maxAvatarSize {
		return "", ErrImageTooLarge
	}
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", ErrInvalidImageType
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	url, err := s.ossClient.UploadAvatar(userID, data, ext)
	if err != nil {
		return "", err
	}

	oldURL := user.AvatarURL
	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{
		"avatar_url": url,
	}); err != nil {
		return "", err
	}

	// 旧头像删除失败不影响主流程
	if oldURL != "" {
		if err := s.ossClient.Delete(s.ossClient.ExtractObjectKey(oldURL)); err != nil {
			log.Printf("Failed to delete old avatar for user %d: %v", userID, err)
		}
	}

	return url, nil
}

// GetQuotaUsage 用户配额消耗记录
func (s *UserService) GetQuotaUsage(userID int64, page, pageSize int) ([]*model.QuotaUsageLog, int64, error) {
	return s.logRepo.ListQuotaUsageByUserID(userID, page, pageSize)
}
