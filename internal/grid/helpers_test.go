package grid

import (
	"sync"
	"testing"
	"time"

	"github.com/surendarrv/datagrid/internal/models"
)

type manualTimer struct {
	f       func()
	stopped bool
}

// manualScheduler queues callbacks until fire is called.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
	delays  []time.Duration
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{f: f}
	s.pending = append(s.pending, t)
	s.delays = append(s.delays, d)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

// fire runs every queued, unstopped callback and returns how many ran.
func (s *manualScheduler) fire() int {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	ran := 0
	for _, t := range batch {
		s.mu.Lock()
		stopped := t.stopped
		s.mu.Unlock()
		if stopped {
			continue
		}
		t.f()
		ran++
	}
	return ran
}

type recordingOutbox struct {
	mu      sync.Mutex
	updates []models.SalaryUpdate
	reject  bool
}

func (o *recordingOutbox) Submit(update models.SalaryUpdate) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.reject {
		return false
	}
	o.updates = append(o.updates, update)
	return true
}

func (o *recordingOutbox) sent() []models.SalaryUpdate {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.SalaryUpdate(nil), o.updates...)
}

type fixture struct {
	ctrl      *Controller
	scheduler *manualScheduler
	outbox    *recordingOutbox
}

func newFixture(t *testing.T, records, pageSize int) *fixture {
	t.Helper()
	f := &fixture{scheduler: &manualScheduler{}, outbox: &recordingOutbox{}}
	seq := 0
	ctrl, err := New(Synthetic(records, 7), Options{
		PageSize:  pageSize,
		PageDelay: 800 * time.Millisecond,
		Scheduler: f.scheduler,
		Outbox:    f.outbox,
		Now:       func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		NewAnnotationID: func() string {
			seq++
			return "ann_test_" + string(rune('a'+seq-1))
		},
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	t.Cleanup(ctrl.Close)
	f.ctrl = ctrl
	return f
}

// signal issues a demand signal and lets the page load complete.
func (f *fixture) signal() bool {
	started := f.ctrl.RequestMore()
	f.scheduler.fire()
	return started
}
