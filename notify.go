package bloghost

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// Mailer delivers a single message. Implementations live outside this
// package; composition and transport are the mail collaborator's concern.
type Mailer interface {
	Send(to, subject, body string) error
}

type mailJob struct {
	to, subject, body string
}

// Notifier queues moderation alerts and contact-form messages for delivery
// after the triggering response has been written. Jobs never block the
// enqueuing request: a full queue drops the job. Deliveries run through a
// circuit breaker so a failing mail backend is shed instead of hammered.
type Notifier struct {
	mailer  Mailer
	breaker *gobreaker.CircuitBreaker
	jobs    chan mailJob
	done    chan struct{}
	closing sync.Once
	logger  *slog.Logger
}

// NewNotifier starts the drain goroutine. Close must be called to flush and
// stop it.
func NewNotifier(mailer Mailer, queueSize int, logger *slog.Logger) *Notifier {
	n := &Notifier{
		mailer: mailer,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "mailer",
			Interval: 30 * time.Second,
			Timeout:  60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("mailer circuit state changed",
					slog.String("from", from.String()), slog.String("to", to.String()))
			},
		}),
		jobs:   make(chan mailJob, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go n.drain()
	return n
}

// Enqueue schedules a delivery. It never blocks; when the queue is full the
// job is dropped and logged.
func (n *Notifier) Enqueue(to, subject, body string) {
	if n.mailer == nil {
		return
	}
	select {
	case n.jobs <- mailJob{to: to, subject: subject, body: body}:
	default:
		moderationAlertsTotal.WithLabelValues("dropped").Inc()
		n.logger.Warn("notification queue full, dropping job", slog.String("to", to))
	}
}

// Close stops accepting jobs, flushes the queue, and waits for the drain
// goroutine to exit. Safe to call more than once.
func (n *Notifier) Close() {
	n.closing.Do(func() {
		close(n.jobs)
	})
	<-n.done
}

func (n *Notifier) drain() {
	defer close(n.done)
	for job := range n.jobs {
		_, err := n.breaker.Execute(func() (any, error) {
			return nil, n.mailer.Send(job.to, job.subject, job.body)
		})
		if err != nil {
			moderationAlertsTotal.WithLabelValues("failed").Inc()
			n.logger.Error("notification delivery failed",
				slog.String("to", job.to), slog.Any("error", err))
			continue
		}
		moderationAlertsTotal.WithLabelValues("sent").Inc()
	}
}
