// Package audit writes employee change events to a durable sink.
package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"roster/internal/metrics"
	"roster/internal/model"
	"roster/internal/queue"
)

// Sink stores audit entries. Record must tolerate the same entry twice.
type Sink interface {
	Record(ctx context.Context, e model.AuditEntry) error
}

// Worker drains a queue into a sink.
type Worker struct {
	q       queue.Queue
	sink    Sink
	log     logrus.FieldLogger
	retries int
	backoff time.Duration
}

func NewWorker(q queue.Queue, sink Sink, log logrus.FieldLogger) *Worker {
	return &Worker{q: q, sink: sink, log: log, retries: 3, backoff: 200 * time.Millisecond}
}

// Run consumes until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	events, err := w.q.Consume(ctx)
	if err != nil {
		return err
	}
	w.log.Info("audit worker started")
	for ev := range events {
		w.handle(ctx, ev)
	}
	w.log.Info("audit worker stopped")
	return nil
}

func (w *Worker) handle(ctx context.Context, ev queue.Event) {
	entry := model.AuditEntry{
		ID:         ev.ID,
		Type:       ev.Type,
		EmployeeID: ev.EmployeeID,
		ActorID:    ev.ActorID,
		At:         ev.At,
	}
	l := w.log.WithFields(logrus.Fields{"event_id": ev.ID, "type": ev.Type, "employee_id": ev.EmployeeID})

	var err error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(w.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				l.Warn("audit entry dropped on shutdown")
				return
			}
		}
		if err = w.sink.Record(ctx, entry); err == nil {
			metrics.Audited(ev.Type)
			l.Debug("audit entry recorded")
			return
		}
	}
	l.WithError(err).Error("audit entry lost")
}
