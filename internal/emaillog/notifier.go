package emaillog

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/condoops/backend/pkg/mailer"
	"github.com/condoops/backend/pkg/queue"
)

// JobTypeEmail is the queue job type the worker consumes.
const JobTypeEmail = "email"

// EmailJob is the queue payload for one outbound email. Rendering happens
// in the worker; the payload carries the raw template inputs.
type EmailJob struct {
	EmailLogID    uuid.UUID `json:"email_log_id"`
	Type          string    `json:"type"`
	To            string    `json:"to"`
	RecipientName string    `json:"recipient_name"`
	OrderNumber   string    `json:"order_number,omitempty"`
	OrderTitle    string    `json:"order_title,omitempty"`
	Condominium   string    `json:"condominium,omitempty"`
	Priority      string    `json:"priority,omitempty"`
	Status        string    `json:"status,omitempty"`
	OldStatus     string    `json:"old_status,omitempty"`
	CommentAuthor string    `json:"comment_author,omitempty"`
	CommentText   string    `json:"comment_text,omitempty"`
	ResetURL      string    `json:"reset_url,omitempty"`
}

// Notifier records a pending email log row and enqueues the delivery job.
// Enqueue failures are logged and swallowed so notification trouble never
// fails the business operation that triggered it.
type Notifier struct {
	repo    *Repository
	queue   *queue.Queue
	appName string
	logger  *zap.Logger
}

func NewNotifier(repo *Repository, q *queue.Queue, appName string, logger *zap.Logger) *Notifier {
	return &Notifier{repo: repo, queue: q, appName: appName, logger: logger}
}

// Enqueue logs and queues one email job. orderID may be nil for
// account-level emails such as password resets.
func (n *Notifier) Enqueue(ctx context.Context, orderID *uuid.UUID, job EmailJob) {
	subject := subjectFor(job, n.appName)
	logRow, err := n.repo.Create(ctx, orderID, job.To, job.Type, subject)
	if err != nil {
		n.logger.Error("create email log", zap.Error(err), zap.String("type", job.Type), zap.String("to", job.To))
		return
	}
	job.EmailLogID = logRow.ID

	if _, err := n.queue.Enqueue(ctx, JobTypeEmail, job); err != nil {
		n.logger.Error("enqueue email", zap.Error(err), zap.String("type", job.Type), zap.String("to", job.To))
		if markErr := n.repo.MarkFailed(ctx, logRow.ID, "enqueue failed: "+err.Error()); markErr != nil {
			n.logger.Error("mark email failed", zap.Error(markErr))
		}
	}
}

func subjectFor(job EmailJob, appName string) string {
	var subject string
	var err error
	data := mailer.OrderEmailData{
		OrderNumber: job.OrderNumber,
		OrderTitle:  job.OrderTitle,
		Status:      job.Status,
		AppName:     appName,
	}
	switch job.Type {
	case mailer.TypeOrderCreated:
		subject, _, err = mailer.RenderOrderCreated(data)
	case mailer.TypeStatusChanged:
		subject, _, err = mailer.RenderStatusChanged(data)
	case mailer.TypeCommentAdded:
		subject, _, err = mailer.RenderCommentAdded(data)
	case mailer.TypePasswordReset:
		subject, _, err = mailer.RenderPasswordReset(mailer.ResetEmailData{AppName: appName})
	case mailer.TypeAccountApproved:
		subject, _, err = mailer.RenderAccountApproved(data)
	}
	if err != nil {
		return ""
	}
	return subject
}
