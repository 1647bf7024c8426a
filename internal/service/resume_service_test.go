package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/config"
	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/model/dto"
	"github.com/cvpilot/resume_go_server/internal/pkg/queue"
	"github.com/cvpilot/resume_go_server/internal/repository"
	"github.com/cvpilot/resume_go_server/internal/testutil"
)

func setupResumeService(t *testing.T) (*gorm.DB, *ResumeService, *queue.Queue) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	genQueue := queue.NewQueue(client, "test:generation")

	cfg := &config.Config{
		Membership: config.MembershipConfig{FreeTierName: "Free"},
	}
	membershipService := NewMembershipService(
		db,
		repository.NewMembershipRepository(db),
		repository.NewTierRepository(db),
		repository.NewQuotaRepository(db),
		repository.NewLogRepository(db),
		cfg,
	)

	service := NewResumeService(
		repository.NewResumeRepository(db),
		repository.NewTemplateRepository(db),
		repository.NewJobRepository(db),
		membershipService,
		genQueue,
		nil,
	)
	return db, service, genQueue
}

func TestResumeService_CreateResume(t *testing.T) {
	db, service, _ := setupResumeService(t)

	user := testutil.TestUser(t, db)

	resume, err := service.CreateResume(user.ID, &dto.CreateResumeRequest{
		Title:   "后端工程师简历",
		Content: map[string]interface{}{"summary": "五年经验"},
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", resume.Status)
	assert.Equal(t, user.ID, resume.UserID)
}

func TestResumeService_CreateResume_PremiumTemplateLocked(t *testing.T) {
	db, service, _ := setupResumeService(t)

	user := testutil.TestUser(t, db)
	testutil.TestFreeTier(t, db)
	tpl := testutil.TestTemplate(t, db, testutil.WithAccessLevel(model.TemplateAccessPremium))

	_, err := service.CreateResume(user.ID, &dto.CreateResumeRequest{
		Title:      "高端模板简历",
		TemplateID: &tpl.ID,
	})
	assert.ErrorIs(t, err, ErrTemplateLocked)
}

func TestResumeService_CreateResume_PremiumTemplateUnlocked(t *testing.T) {
	db, service, _ := setupResumeService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db, testutil.WithTemplateAccess(model.TemplateAccessAll))
	testutil.TestMembership(t, db, user.ID, tier.ID)
	tpl := testutil.TestTemplate(t, db, testutil.WithAccessLevel(model.TemplateAccessPremium))

	resume, err := service.CreateResume(user.ID, &dto.CreateResumeRequest{
		Title:      "高端模板简历",
		TemplateID: &tpl.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, *resume.TemplateID)
}

func TestResumeService_GetResume_OwnershipCheck(t *testing.T) {
	db, service, _ := setupResumeService(t)

	owner := testutil.TestUser(t, db)
	stranger := testutil.TestUser(t, db)
	resume := testutil.TestResume(t, db, owner.ID)

	got, err := service.GetResume(resume.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, resume.Title, got.Title)

	// 越权访问按不存在处理
	_, err = service.GetResume(resume.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestResumeService_UpdateResume_BlockedWhileGenerating(t *testing.T) {
	db, service, _ := setupResumeService(t)

	user := testutil.TestUser(t, db)
	resume := testutil.TestResume(t, db, user.ID, testutil.WithResumeStatus("generating"))

	title := "新标题"
	_, err := service.UpdateResume(resume.ID, user.ID, &dto.UpdateResumeRequest{Title: &title})
	assert.ErrorIs(t, err, ErrResumeGenerating)
}

func TestResumeService_DeleteResume(t *testing.T) {
	db, service, _ := setupResumeService(t)

	user := testutil.TestUser(t, db)
	resume := testutil.TestResume(t, db, user.ID)

	require.NoError(t, service.DeleteResume(resume.ID, user.ID))

	_, err := service.GetResume(resume.ID, user.ID)
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestResumeService_Generate(t *testing.T) {
	db, service, genQueue := setupResumeService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	testutil.TestMembership(t, db, user.ID, tier.ID, testutil.WithRemainingQuota(5))
	resume := testutil.TestResume(t, db, user.ID)

	ctx := context.Background()
	resp, err := service.Generate(ctx, user.ID, resume.ID, &dto.GenerateRequest{
		Action: "generate",
		Prompt: "突出项目经验",
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, resp.Status)

	// 简历翻转为生成中，任务入队
	var row model.Resume
	require.NoError(t, db.First(&row, resume.ID).Error)
	assert.Equal(t, "generating", row.Status)

	length, err := genQueue.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)

	msg, err := genQueue.Pop(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, resp.JobID, msg.JobID)
	assert.Equal(t, "generate", msg.Action)
	assert.Equal(t, "突出项目经验", msg.Prompt)

	// 扣掉了一次会员额度
	var m model.UserMembership
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&m).Error)
	assert.Equal(t, 4, m.RemainingAIQuota)
}

func TestResumeService_Generate_QuotaExhausted(t *testing.T) {
	db, service, genQueue := setupResumeService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	testutil.TestMembership(t, db, user.ID, tier.ID, testutil.WithRemainingQuota(0))
	resume := testutil.TestResume(t, db, user.ID)

	ctx := context.Background()
	_, err := service.Generate(ctx, user.ID, resume.ID, &dto.GenerateRequest{Action: "generate"})
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	// 被拒时不建任务不入队
	var count int64
	db.Model(&model.GenerationJob{}).Count(&count)
	assert.Equal(t, int64(0), count)

	length, err := genQueue.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)
}

func TestResumeService_Generate_BlockedWhileGenerating(t *testing.T) {
	db, service, _ := setupResumeService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	testutil.TestMembership(t, db, user.ID, tier.ID, testutil.WithRemainingQuota(5))
	resume := testutil.TestResume(t, db, user.ID, testutil.WithResumeStatus("generating"))

	_, err := service.Generate(context.Background(), user.ID, resume.ID, &dto.GenerateRequest{Action: "generate"})
	assert.ErrorIs(t, err, ErrResumeGenerating)
}

func TestResumeService_GetJobStatus(t *testing.T) {
	db, service, _ := setupResumeService(t)

	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db)
	testutil.TestMembership(t, db, user.ID, tier.ID, testutil.WithRemainingQuota(5))
	resume := testutil.TestResume(t, db, user.ID)

	_, err := service.GetJobStatus(resume.ID, user.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	resp, err := service.Generate(context.Background(), user.ID, resume.ID, &dto.GenerateRequest{Action: "optimize"})
	require.NoError(t, err)

	status, err := service.GetJobStatus(resume.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.JobID, status.JobID)
	assert.Equal(t, model.JobStatusQueued, status.Status)
}

func TestResumeService_Export_RequiresOSS(t *testing.T) {
	db, service, _ := setupResumeService(t)

	user := testutil.TestUser(t, db)
	resume := testutil.TestResume(t, db, user.ID)

	_, err := service.Export(resume.ID, user.ID)
	assert.ErrorIs(t, err, ErrOSSNotConfigured)
}

func TestResumeService_ListTemplates_MarksLocked(t *testing.T) {
	db, service, _ := setupResumeService(t)

	testutil.TestTemplate(t, db)
	testutil.TestTemplate(t, db, testutil.WithAccessLevel(model.TemplateAccessPremium))

	// 匿名访问：premium 模板标记锁定
	infos, err := service.ListTemplates(0)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	lockedCount := 0
	for _, info := range infos {
		if info.Locked {
			lockedCount++
		}
	}
	assert.Equal(t, 1, lockedCount)

	// 高级会员：全部解锁
	user := testutil.TestUser(t, db)
	tier := testutil.TestTier(t, db, testutil.WithTemplateAccess(model.TemplateAccessPremium))
	testutil.TestMembership(t, db, user.ID, tier.ID)

	infos, err = service.ListTemplates(user.ID)
	require.NoError(t, err)
	for _, info := range infos {
		assert.False(t, info.Locked)
	}
}
