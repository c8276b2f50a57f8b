package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster/internal/model"
	"roster/internal/queue"
	"roster/internal/store/memstore"
)

// flakySink fails the first n writes.
type flakySink struct {
	mu      sync.Mutex
	fail    int
	calls   int
	entries []model.AuditEntry
}

func (s *flakySink) Record(ctx context.Context, e model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.fail {
		return errors.New("sink unavailable")
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *flakySink) snapshot() (int, []model.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]model.AuditEntry(nil), s.entries...)
}

func runWorker(t *testing.T, w *Worker) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()
	return func() {
		stop()
		<-done
	}
}

func TestWorkerRecordsEvents(t *testing.T) {
	q := queue.NewInMemory(8)
	sink := memstore.NewAudit()
	log, _ := test.NewNullLogger()
	stop := runWorker(t, NewWorker(q, sink, log))
	defer stop()

	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, q.Publish(context.Background(), queue.Event{
		ID: "ev-1", Type: queue.EmployeeCreated, EmployeeID: "emp-1", ActorID: "admin-1", At: at,
	}))

	require.Eventually(t, func() bool { return len(sink.Entries()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, model.AuditEntry{
		ID: "ev-1", Type: queue.EmployeeCreated, EmployeeID: "emp-1", ActorID: "admin-1", At: at,
	}, sink.Entries()[0])
}

func TestWorkerRetriesFailedWrites(t *testing.T) {
	q := queue.NewInMemory(8)
	sink := &flakySink{fail: 2}
	log, _ := test.NewNullLogger()
	w := NewWorker(q, sink, log)
	w.backoff = time.Millisecond
	stop := runWorker(t, w)
	defer stop()

	require.NoError(t, q.Publish(context.Background(), queue.Event{ID: "ev-1", Type: queue.EmployeeDeleted}))

	require.Eventually(t, func() bool {
		_, entries := sink.snapshot()
		return len(entries) == 1
	}, time.Second, 5*time.Millisecond)
	calls, _ := sink.snapshot()
	assert.Equal(t, 3, calls)
}

func TestWorkerGivesUpAfterRetries(t *testing.T) {
	sink := &flakySink{fail: 100}
	log, hook := test.NewNullLogger()
	w := NewWorker(queue.NewInMemory(1), sink, log)
	w.backoff = time.Millisecond

	w.handle(context.Background(), queue.Event{ID: "ev-1", Type: queue.EmployeeUpdated})

	calls, entries := sink.snapshot()
	assert.Equal(t, 4, calls)
	assert.Empty(t, entries)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "audit entry lost", hook.LastEntry().Message)
}
