// Package reconcile forwards locally committed salary updates to the remote
// payroll service in the background. Updates are sent at most once; a
// failure is reported to result callbacks and never retried.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/surendarrv/datagrid/internal/metrics"
	"github.com/surendarrv/datagrid/internal/models"
	"github.com/surendarrv/datagrid/internal/utils"
)

// Client sends one salary update to the remote service.
type Client interface {
	UpdateSalary(ctx context.Context, update models.SalaryUpdate) error
}

// ResultFunc observes the outcome of a dispatched update. err is nil on
// success.
type ResultFunc func(update models.SalaryUpdate, err error)

// Options configures a Dispatcher.
type Options struct {
	QueueSize int
	Workers   int
	// Timeout bounds each remote call. Zero means no per-call deadline.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Dispatcher is a bounded queue drained by a fixed set of workers.
type Dispatcher struct {
	client  Client
	timeout time.Duration
	logger  *slog.Logger
	latency *utils.LatencyTracker

	mu      sync.RWMutex
	queue   chan models.SalaryUpdate
	closed  bool
	results []ResultFunc

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewDispatcher starts the workers.
func NewDispatcher(client Client, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		client:  client,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		latency: utils.NewLatencyTracker(256),
		queue:   make(chan models.SalaryUpdate, opts.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		group:   &errgroup.Group{},
	}
	for i := 0; i < opts.Workers; i++ {
		d.group.Go(func() error {
			d.work()
			return nil
		})
	}
	return d
}

// OnResult registers fn to run on the worker goroutine after every call.
func (d *Dispatcher) OnResult(fn ResultFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, fn)
}

// Submit queues update without blocking. It reports false when the queue is
// full or the dispatcher is closed.
func (d *Dispatcher) Submit(update models.SalaryUpdate) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.ObserveReconciliation(0, metrics.OutcomeDropped)
		return false
	}
	select {
	case d.queue <- update:
		return true
	default:
		metrics.ObserveReconciliation(0, metrics.OutcomeDropped)
		d.logger.Warn("reconcile queue full", slog.Int("id", update.EmployeeID))
		return false
	}
}

// Latency exposes remote call latencies.
func (d *Dispatcher) Latency() *utils.LatencyTracker {
	return d.latency
}

// Close stops accepting updates and waits for queued ones to drain. When
// ctx expires first, in-flight calls are cancelled and ctx.Err is returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	for update := range d.queue {
		d.send(update)
	}
}

func (d *Dispatcher) send(update models.SalaryUpdate) {
	ctx := d.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	started := time.Now()
	err := d.client.UpdateSalary(ctx, update)
	elapsed := time.Since(started)
	d.latency.Observe(elapsed)

	if err != nil {
		if !errors.Is(err, utils.ErrRemote) {
			err = utils.NewAppError("reconcile.send", "update salary", errors.Join(utils.ErrRemote, err))
		}
		metrics.ObserveReconciliation(elapsed, metrics.OutcomeError)
		d.logger.Error("salary reconciliation failed",
			slog.Int("id", update.EmployeeID),
			slog.Int("salary", update.NewSalary),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err))
	} else {
		metrics.ObserveReconciliation(elapsed, metrics.OutcomeSuccess)
		d.logger.Info("salary reconciled",
			slog.Int("id", update.EmployeeID),
			slog.Int("salary", update.NewSalary),
			slog.Duration("elapsed", elapsed))
	}

	d.mu.RLock()
	results := append([]ResultFunc(nil), d.results...)
	d.mu.RUnlock()
	for _, fn := range results {
		fn(update, err)
	}
}
