package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-whitelist/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

const (
	JobIDAdmit  = "whitelist.member.admit"
	JobIDRemove = "whitelist.member.remove"

	ParamMail = "mail"
)

// RetryPolicy defines queue retry bounds to avoid unbounded retry loops.
type RetryPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// DefaultRetryPolicy allows five attempts with linear backoff capped at one minute.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		BaseDelay:       2 * time.Second,
		MaxDelay:        time.Minute,
		DeadLetterOnMax: true,
	}
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation. A retry past
// MaxAttempts becomes a dead letter, or a plain failure when DeadLetterOnMax is off.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Disposition == "" {
		out.Disposition = queue.NackDispositionRetry
	}
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.Disposition == queue.NackDispositionRetry && p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Disposition = queue.NackDispositionFailed
		if p.DeadLetterOnMax {
			out.Disposition = queue.NackDispositionDeadLetter
		}
	}
	if out.Disposition != queue.NackDispositionRetry {
		out.Delay = 0
	}
	return out
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 || attempt <= 0 {
		return 0
	}
	return time.Duration(attempt) * p.BaseDelay
}

// NewMemberMessage builds the queue payload for one member operation. The mail is validated up front
// so malformed input never reaches the queue.
func NewMemberMessage(jobID string, rawMail string) (*job.ExecutionMessage, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID != JobIDAdmit && jobID != JobIDRemove {
		return nil, fmt.Errorf("gojob: unsupported job id %q", jobID)
	}
	mail, err := core.ParseMail(rawMail)
	if err != nil {
		return nil, core.NewKindError(core.KindMail, "gojob: invalid mail", err)
	}
	return &job.ExecutionMessage{
		JobID:          jobID,
		ScriptPath:     jobID,
		Parameters:     map[string]any{ParamMail: mail.String()},
		IdempotencyKey: idempotencyKey(jobID, mail),
		DedupPolicy:    job.DedupPolicyDrop,
	}, nil
}

// MailFromMessage extracts the member mail carried by msg.
func MailFromMessage(msg *job.ExecutionMessage) (string, error) {
	if msg == nil {
		return "", fmt.Errorf("gojob: execution message is required")
	}
	raw, ok := msg.Parameters[ParamMail].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("gojob: message %q carries no mail", msg.JobID)
	}
	return raw, nil
}

func idempotencyKey(jobID string, mail core.Mail) string {
	switch jobID {
	case JobIDRemove:
		return "remove:" + mail.String()
	default:
		return "admit:" + mail.String()
	}
}

// AdmissionQueue publishes member operations for a single Processor to drain.
type AdmissionQueue struct {
	enqueuer queue.Enqueuer
}

func NewAdmissionQueue(enqueuer queue.Enqueuer) *AdmissionQueue {
	return &AdmissionQueue{enqueuer: enqueuer}
}

func (q *AdmissionQueue) EnqueueAdmission(ctx context.Context, rawMail string) error {
	return q.enqueue(ctx, JobIDAdmit, rawMail)
}

func (q *AdmissionQueue) EnqueueRemoval(ctx context.Context, rawMail string) error {
	return q.enqueue(ctx, JobIDRemove, rawMail)
}

func (q *AdmissionQueue) enqueue(ctx context.Context, jobID string, rawMail string) error {
	if q == nil || q.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	msg, err := NewMemberMessage(jobID, rawMail)
	if err != nil {
		return err
	}
	if err := queue.ValidateRequiredMessage(msg); err != nil {
		return err
	}
	_, err = q.enqueuer.Enqueue(ctx, msg)
	return err
}
