package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cvpilot/resume_go_server/internal/model"
	"github.com/cvpilot/resume_go_server/internal/pkg/pubsub"
	"github.com/cvpilot/resume_go_server/internal/pkg/queue"
	"github.com/cvpilot/resume_go_server/internal/repository"
)

// Processor 生成任务处理器
type Processor struct {
	jobRepo    *repository.JobRepository
	resumeRepo *repository.ResumeRepository
	generator  Generator
	publisher  *pubsub.Publisher
}

func NewProcessor(
	jobRepo *repository.JobRepository,
	resumeRepo *repository.ResumeRepository,
	generator Generator,
	publisher *pubsub.Publisher,
) *Processor {
	return &Processor{
		jobRepo:    jobRepo,
		resumeRepo: resumeRepo,
		generator:  generator,
		publisher:  publisher,
	}
}

// Process 处理一条生成任务
func (p *Processor) Process(ctx context.Context, msg *queue.GenerationMessage) error {
	job, err := p.jobRepo.GetByID(msg.JobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	resume, err := p.resumeRepo.GetByID(msg.ResumeID)
	if err != nil {
		return fmt.Errorf("failed to get resume: %w", err)
	}

	now := time.Now()
	job.Status = model.JobStatusProcessing
	job.StartedAt = &now
	p.jobRepo.Update(job)

	publishProgress := func(step, status string, errMsg string) {
		p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
			UserID:   msg.UserID,
			ResumeID: msg.ResumeID,
			JobID:    msg.JobID,
			Status:   status,
			Step:     step,
			Error:    errMsg,
		})
	}

	handleError := func(step string, err error) error {
		errMsg := err.Error()
		completedAt := time.Now()
		job.Status = model.JobStatusFailed
		job.ErrorMessage = errMsg
		job.CompletedAt = &completedAt
		job.ElapsedSeconds = int(completedAt.Sub(*job.StartedAt).Seconds())
		p.jobRepo.Update(job)
		p.resumeRepo.UpdateStatus(resume.ID, "draft")
		publishProgress(step, "failed", errMsg)
		return err
	}

	log.Printf("Job %d: %s resume %d for user %d", job.ID, msg.Action, msg.ResumeID, msg.UserID)
	publishProgress(pubsub.StepPreparing, "processing", "")

	publishProgress(pubsub.StepWriting, "processing", "")
	content, err := p.generator.Generate(ctx, resume, msg.Action, msg.Prompt)
	if err != nil {
		return handleError(pubsub.StepWriting, err)
	}

	publishProgress(pubsub.StepPolishing, "processing", "")

	publishProgress(pubsub.StepSaving, "processing", "")
	resume.Content = content
	resume.Status = "completed"
	if err := p.resumeRepo.Update(resume); err != nil {
		return handleError(pubsub.StepSaving, fmt.Errorf("failed to save resume: %w", err))
	}

	completedAt := time.Now()
	job.Status = model.JobStatusCompleted
	job.CompletedAt = &completedAt
	job.ElapsedSeconds = int(completedAt.Sub(*job.StartedAt).Seconds())
	if err := p.jobRepo.Update(job); err != nil {
		return handleError(pubsub.StepSaving, fmt.Errorf("failed to update job: %w", err))
	}

	publishProgress(pubsub.StepDone, "completed", "")
	log.Printf("Job %d: completed in %ds", job.ID, job.ElapsedSeconds)
	return nil
}
