package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/averix/identity/services/logging"
	"go.uber.org/zap"
)

type job struct {
	to   string
	kind TemplateKind
	code string
}

// Dispatcher decouples callers from SMTP delivery. Dispatch never blocks and
// never fails from the caller's perspective: a full queue drops the job with
// a log line, and delivery errors are logged by the workers and swallowed.
type Dispatcher struct {
	sender  Sender
	logger  *logging.Service
	queue   chan job
	timeout time.Duration
	workers int
	wg      sync.WaitGroup
	closed  sync.Once
}

func NewDispatcher(sender Sender, logger *logging.Service, queueSize, workers int, sendTimeout time.Duration) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}

	return &Dispatcher{
		sender:  sender,
		logger:  logger,
		queue:   make(chan job, queueSize),
		timeout: sendTimeout,
		workers: workers,
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Dispatch submits a notification for background delivery.
func (d *Dispatcher) Dispatch(to string, kind TemplateKind, code string) {
	select {
	case d.queue <- job{to: to, kind: kind, code: code}:
	default:
		d.logger.Warn("mail queue full, notification dropped",
			zap.String("kind", string(kind)),
			zap.String("to", to))
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for j := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sender.Send(ctx, j.to, j.kind, j.code); err != nil {
			d.logger.Error("notification delivery failed",
				zap.Error(err),
				zap.String("kind", string(j.kind)),
				zap.String("to", j.to))
		}
		cancel()
	}
}

// Stop closes the queue and waits for in-flight deliveries, bounded by ctx.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.closed.Do(func() { close(d.queue) })

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
