package gojob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-whitelist/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
)

const defaultPollInterval = time.Second

// MemberService is satisfied by *core.Coordinator and *core.Serialized.
type MemberService interface {
	AddUser(ctx context.Context, mail string) (core.User, error)
	RemoveUser(ctx context.Context, mail string) (core.User, error)
}

type ProcessorOption func(*Processor)

func WithRetryPolicy(policy RetryPolicy) ProcessorOption {
	return func(p *Processor) {
		p.policy = policy
	}
}

func WithHooks(hooks ...worker.Hook) ProcessorOption {
	return func(p *Processor) {
		for _, hook := range hooks {
			if hook != nil {
				p.hooks = append(p.hooks, hook)
			}
		}
	}
}

func WithPollInterval(interval time.Duration) ProcessorOption {
	return func(p *Processor) {
		if interval > 0 {
			p.pollInterval = interval
		}
	}
}

func WithLogger(logger glog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = glog.Ensure(logger)
	}
}

// Processor drains member operations one at a time.
type Processor struct {
	dequeuer     queue.Dequeuer
	service      MemberService
	policy       RetryPolicy
	hooks        []worker.Hook
	logger       glog.Logger
	pollInterval time.Duration

	mu       sync.Mutex
	attempts map[string]int
}

func NewProcessor(dequeuer queue.Dequeuer, service MemberService, opts ...ProcessorOption) (*Processor, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is required")
	}
	if service == nil {
		return nil, fmt.Errorf("gojob: member service is required")
	}
	p := &Processor{
		dequeuer:     dequeuer,
		service:      service,
		policy:       DefaultRetryPolicy(),
		logger:       glog.Nop(),
		pollInterval: defaultPollInterval,
		attempts:     map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// ProcessNext handles a single delivery. The returned error is the operation failure, if any;
// the delivery has already been acked or nacked by then.
func (p *Processor) ProcessNext(ctx context.Context) error {
	delivery, err := p.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	if delivery == nil {
		return nil
	}
	msg := delivery.Message()
	key := deliveryKey(msg)
	attempt := p.nextAttempt(key)
	startedAt := time.Now()

	p.emit(func(hook worker.Hook, event worker.Event) { hook.OnStart(ctx, event) }, worker.Event{
		Message:   msg,
		Delivery:  delivery,
		Attempt:   attempt,
		StartedAt: startedAt,
	})

	opErr := p.execute(ctx, msg)
	event := worker.Event{
		Message:   msg,
		Delivery:  delivery,
		Attempt:   attempt,
		Err:       opErr,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
	}

	if opErr == nil {
		p.forget(key)
		if err := delivery.Ack(ctx); err != nil {
			return err
		}
		p.emit(func(hook worker.Hook, event worker.Event) { hook.OnSuccess(ctx, event) }, event)
		return nil
	}

	disposition := queue.NackDispositionRetry
	if isPermanent(opErr) {
		disposition = queue.NackDispositionDeadLetter
	}
	nack := p.policy.NormalizeAttempt(queue.NackOptions{
		Disposition: disposition,
		Delay:       p.policy.backoff(attempt),
		Reason:      opErr.Error(),
	}, attempt)
	retry := nack.Disposition == queue.NackDispositionRetry
	if !retry {
		p.forget(key)
	}
	event.Delay = nack.Delay
	if err := queue.ValidateNackOptions(nack); err != nil {
		return err
	}
	if err := delivery.Nack(ctx, nack); err != nil {
		return err
	}
	if retry {
		p.emit(func(hook worker.Hook, event worker.Event) { hook.OnRetry(ctx, event) }, event)
	} else {
		p.emit(func(hook worker.Hook, event worker.Event) { hook.OnFailure(ctx, event) }, event)
	}
	return opErr
}

// Run processes deliveries until ctx is done. Operation failures are logged and do not stop the loop.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := p.ProcessNext(ctx)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("member job failed", "error", err, "error_kind", string(core.KindOf(err)))
		timer := time.NewTimer(p.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (p *Processor) execute(ctx context.Context, msg *job.ExecutionMessage) error {
	mail, err := MailFromMessage(msg)
	if err != nil {
		return core.NewKindError(core.KindMail, "gojob: malformed member job", err)
	}
	switch strings.TrimSpace(msg.JobID) {
	case JobIDAdmit:
		_, err = p.service.AddUser(ctx, mail)
	case JobIDRemove:
		_, err = p.service.RemoveUser(ctx, mail)
	default:
		err = core.NewKindError(core.KindGeneric, fmt.Sprintf("gojob: unsupported job id %q", msg.JobID), nil)
	}
	return err
}

func (p *Processor) emit(call func(worker.Hook, worker.Event), event worker.Event) {
	for _, hook := range p.hooks {
		call(hook, event)
	}
}

func (p *Processor) nextAttempt(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts[key]++
	return p.attempts[key]
}

func (p *Processor) forget(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attempts, key)
}

// isPermanent marks failures that retrying cannot fix.
func isPermanent(err error) bool {
	if errors.Is(err, core.ErrOperationUnsupported) {
		return true
	}
	switch core.KindOf(err) {
	case core.KindMail, core.KindDuplicatedUser:
		return true
	default:
		return false
	}
}

func deliveryKey(msg *job.ExecutionMessage) string {
	if msg == nil {
		return ""
	}
	if key := strings.TrimSpace(msg.IdempotencyKey); key != "" {
		return key
	}
	mail, _ := msg.Parameters[ParamMail].(string)
	return strings.TrimSpace(msg.JobID) + ":" + mail
}
