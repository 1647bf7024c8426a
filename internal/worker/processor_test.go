package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/pkg/pubsub"
	"github.com/cvpilot/resume_go_server/internal/pkg/queue"
	"github.com/cvpilot/resume_go_server/internal/repository"
	"github.com/cvpilot/resume_go_server/internal/testutil"
)

// failingGenerator 固定返回错误，用于失败路径测试
type failingGenerator struct{}

func (failingGenerator) Generate(ctx context.Context, resume *model.Resume, action, prompt string) (model.JSONMap, error) {
	return nil, errors.New("model backend unavailable")
}

func setupProcessor(t *testing.T, generator Generator) (*gorm.DB, *Processor) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	processor := NewProcessor(
		repository.NewJobRepository(db),
		repository.NewResumeRepository(db),
		generator,
		pubsub.NewPublisher(client),
	)
	return db, processor
}

func queuedJob(t *testing.T, db *gorm.DB, userID, resumeID int64, action string) *model.GenerationJob {
	t.Helper()
	job := &model.GenerationJob{
		ResumeID: resumeID,
		UserID:   userID,
		Action:   action,
		Status:   model.JobStatusQueued,
	}
	require.NoError(t, db.Create(job).Error)
	return job
}

func TestProcessor_Process_Generate(t *testing.T) {
	db, processor := setupProcessor(t, NewTemplateGenerator())

	user := testutil.TestUser(t, db)
	resume := testutil.TestResume(t, db, user.ID, testutil.WithResumeStatus("generating"))
	job := queuedJob(t, db, user.ID, resume.ID, "generate")

	err := processor.Process(context.Background(), &queue.GenerationMessage{
		JobID:    job.ID,
		ResumeID: resume.ID,
		UserID:   user.ID,
		Action:   "generate",
	})
	require.NoError(t, err)

	var jobRow model.GenerationJob
	require.NoError(t, db.First(&jobRow, job.ID).Error)
	assert.Equal(t, model.JobStatusCompleted, jobRow.Status)
	require.NotNil(t, jobRow.StartedAt)
	require.NotNil(t, jobRow.CompletedAt)

	var resumeRow model.Resume
	require.NoError(t, db.First(&resumeRow, resume.ID).Error)
	assert.Equal(t, "completed", resumeRow.Status)
	assert.Contains(t, resumeRow.Content, "skills")
	assert.Equal(t, "三年后端开发经验", resumeRow.Content["summary"])
}

func TestProcessor_Process_Optimize(t *testing.T) {
	db, processor := setupProcessor(t, NewTemplateGenerator())

	user := testutil.TestUser(t, db)
	resume := testutil.TestResume(t, db, user.ID, testutil.WithResumeStatus("generating"))
	require.NoError(t, db.Model(resume).Update("content", model.JSONMap{
		"summary": "  精通  Go ",
	}).Error)
	job := queuedJob(t, db, user.ID, resume.ID, "optimize")

	err := processor.Process(context.Background(), &queue.GenerationMessage{
		JobID:    job.ID,
		ResumeID: resume.ID,
		UserID:   user.ID,
		Action:   "optimize",
	})
	require.NoError(t, err)

	var resumeRow model.Resume
	require.NoError(t, db.First(&resumeRow, resume.ID).Error)
	assert.Equal(t, "精通 Go。", resumeRow.Content["summary"])
}

func TestProcessor_Process_FailureResetsResume(t *testing.T) {
	db, processor := setupProcessor(t, failingGenerator{})

	user := testutil.TestUser(t, db)
	resume := testutil.TestResume(t, db, user.ID, testutil.WithResumeStatus("generating"))
	job := queuedJob(t, db, user.ID, resume.ID, "generate")

	err := processor.Process(context.Background(), &queue.GenerationMessage{
		JobID:    job.ID,
		ResumeID: resume.ID,
		UserID:   user.ID,
		Action:   "generate",
	})
	require.Error(t, err)

	// 任务标记失败，简历退回草稿可以重试
	var jobRow model.GenerationJob
	require.NoError(t, db.First(&jobRow, job.ID).Error)
	assert.Equal(t, model.JobStatusFailed, jobRow.Status)
	assert.Equal(t, "model backend unavailable", jobRow.ErrorMessage)

	var resumeRow model.Resume
	require.NoError(t, db.First(&resumeRow, resume.ID).Error)
	assert.Equal(t, "draft", resumeRow.Status)
}

func TestProcessor_Process_PublishesProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	processor := NewProcessor(
		repository.NewJobRepository(db),
		repository.NewResumeRepository(db),
		NewTemplateGenerator(),
		pubsub.NewPublisher(client),
	)

	user := testutil.TestUser(t, db)
	resume := testutil.TestResume(t, db, user.ID, testutil.WithResumeStatus("generating"))
	job := queuedJob(t, db, user.ID, resume.ID, "generate")

	received := make(chan *pubsub.ProgressMessage, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subscriber := pubsub.NewSubscriber(client)
	go subscriber.Subscribe(ctx, func(msg *pubsub.ProgressMessage) {
		received <- msg
	})
	time.Sleep(50 * time.Millisecond) // 等订阅建立

	require.NoError(t, processor.Process(ctx, &queue.GenerationMessage{
		JobID:    job.ID,
		ResumeID: resume.ID,
		UserID:   user.ID,
		Action:   "generate",
	}))

	steps := make([]string, 0, 8)
	timeout := time.After(2 * time.Second)
	for len(steps) == 0 || steps[len(steps)-1] != pubsub.StepDone {
		select {
		case msg := <-received:
			assert.Equal(t, user.ID, msg.UserID)
			assert.Equal(t, job.ID, msg.JobID)
			steps = append(steps, msg.Step)
		case <-timeout:
			t.Fatalf("Timed out waiting for progress messages, got steps: %v", steps)
		}
	}

	assert.Equal(t, pubsub.StepPreparing, steps[0])
	assert.Contains(t, steps, pubsub.StepWriting)
	assert.Contains(t, steps, pubsub.StepSaving)
}
