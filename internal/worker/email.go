package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/condoops/backend/internal/emaillog"
	"github.com/condoops/backend/pkg/mailer"
	"github.com/condoops/backend/pkg/queue"
)

const (
	dequeueTimeout = 5 * time.Second
	retryBackoff   = 2 * time.Second
)

// EmailProcessor delivers queued notification emails: render the
// template, send over SMTP, mark the email log row.
type EmailProcessor struct {
	smtp    *mailer.SMTP
	logs    *emaillog.Repository
	queue   *queue.Queue
	appName string
	logger  *zap.Logger
}

// NewEmailProcessor creates an email delivery processor.
func NewEmailProcessor(smtp *mailer.SMTP, logs *emaillog.Repository, q *queue.Queue, appName string, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{smtp: smtp, logs: logs, queue: q, appName: appName, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != emaillog.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload emaillog.EmailJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	subject, body, err := p.render(payload)
	if err != nil {
		// rendering never recovers on retry, fail the log row and drop the job
		p.logger.Error("render email", zap.Error(err), zap.String("type", payload.Type))
		if markErr := p.logs.MarkFailed(ctx, payload.EmailLogID, "render: "+err.Error()); markErr != nil {
			p.logger.Error("mark email failed", zap.Error(markErr))
		}
		return nil
	}

	if err := p.smtp.Send(ctx, payload.To, subject, body); err != nil {
		if markErr := p.logs.MarkFailed(ctx, payload.EmailLogID, err.Error()); markErr != nil {
			p.logger.Error("mark email failed", zap.Error(markErr))
		}
		return fmt.Errorf("send: %w", err)
	}

	if err := p.logs.MarkSent(ctx, payload.EmailLogID); err != nil {
		p.logger.Error("mark email sent", zap.Error(err))
	}
	p.logger.Info("email sent", zap.String("type", payload.Type), zap.String("to", payload.To))
	return nil
}

func (p *EmailProcessor) render(payload emaillog.EmailJob) (subject, body string, err error) {
	data := mailer.OrderEmailData{
		RecipientName: payload.RecipientName,
		OrderNumber:   payload.OrderNumber,
		OrderTitle:    payload.OrderTitle,
		Condominium:   payload.Condominium,
		Priority:      payload.Priority,
		Status:        payload.Status,
		OldStatus:     payload.OldStatus,
		CommentAuthor: payload.CommentAuthor,
		CommentText:   payload.CommentText,
		AppName:       p.appName,
	}
	switch payload.Type {
	case mailer.TypeOrderCreated:
		return mailer.RenderOrderCreated(data)
	case mailer.TypeStatusChanged:
		return mailer.RenderStatusChanged(data)
	case mailer.TypeCommentAdded:
		return mailer.RenderCommentAdded(data)
	case mailer.TypePasswordReset:
		return mailer.RenderPasswordReset(mailer.ResetEmailData{
			RecipientName: payload.RecipientName,
			ResetURL:      payload.ResetURL,
			AppName:       p.appName,
		})
	case mailer.TypeAccountApproved:
		return mailer.RenderAccountApproved(data)
	}
	return "", "", fmt.Errorf("unknown email type: %s", payload.Type)
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(retryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", job.Type))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(retryBackoff)
		}
	}
}
