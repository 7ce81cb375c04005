package mailer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/acgn-assistant/acgn-assistant/pkg/metrics"
)

// DefaultQueueSize bounds the number of messages waiting for the worker
const DefaultQueueSize = 64

const sendTimeout = time.Minute

// Queue hands messages to a single background worker so requests never wait
// on SMTP. Failures are logged and counted.
type Queue struct {
	sender  Sender
	logger  *zap.Logger
	metrics *metrics.Collector

	jobs      chan Message
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewQueue starts the worker
func NewQueue(sender Sender, size int, logger *zap.Logger, m *metrics.Collector) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &Queue{
		sender:  sender,
		logger:  logger,
		metrics: m,
		jobs:    make(chan Message, size),
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

// Enqueue queues msg without blocking. A full or closed queue drops it.
func (q *Queue) Enqueue(msg Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.drop(msg, "queue closed")
		return false
	}
	select {
	case q.jobs <- msg:
		return true
	default:
		q.drop(msg, "queue full")
		return false
	}
}

func (q *Queue) drop(msg Message, reason string) {
	q.logger.Error("email dropped", zap.String("to", msg.To), zap.String("reason", reason))
	q.metrics.EmailSent(metrics.OutcomeError)
}

// Close stops accepting messages and waits for queued ones to be sent
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()
	})
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for msg := range q.jobs {
		q.send(msg)
	}
}

func (q *Queue) send(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := q.sender.Send(ctx, msg); err != nil {
		q.logger.Error("email send failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		q.metrics.EmailSent(metrics.OutcomeError)
		return
	}

	if _, ok := q.sender.(*LogSender); ok {
		q.metrics.EmailSent(metrics.OutcomeLogged)
		return
	}
	q.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	q.metrics.EmailSent(metrics.OutcomeSuccess)
}
