// Package grid keeps a full record collection and its incrementally loaded
// window consistent under pagination, salary edits and annotation appends.
//
// Every exported Controller method and every deferred page completion runs
// under a single lock, so a write to the store and the mirrored write to the
// window are observed together or not at all.
package grid

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/surendarrv/datagrid/internal/metrics"
	"github.com/surendarrv/datagrid/internal/models"
)

// scrollThreshold is how close (in pixels) to the bottom a scroll must get
// before it counts as a demand signal.
const scrollThreshold = 100

// Outbox accepts committed salary updates for remote reconciliation. Submit
// must not block; it reports false when the update could not be queued.
type Outbox interface {
	Submit(update models.SalaryUpdate) bool
}

// Options configures a Controller.
type Options struct {
	PageSize  int
	PageDelay time.Duration
	Scheduler Scheduler
	Outbox    Outbox
	Logger    *slog.Logger
	// Now and NewAnnotationID are overridable for tests.
	Now             func() time.Time
	NewAnnotationID func() string
}

// Controller is the single entry point for reads and writes of grid state.
type Controller struct {
	mu     sync.Mutex
	logger *slog.Logger

	store     *RecordStore
	window    *Window
	selection *Selection

	scheduler  Scheduler
	pageDelay  time.Duration
	cancelLoad func() bool

	edit      *EditBuffer
	updated   map[int]struct{}
	reconcile map[int]reconcileEntry
	outbox    Outbox

	hooks     []AnnotationHook
	annotated bool

	now   func() time.Time
	newID func() string

	closed bool
}

// WindowSnapshot is a consistent copy of the window state.
type WindowSnapshot struct {
	State          WindowState
	PageSize       int
	CurrentPage    int
	TotalPages     int
	Loading        bool
	LoadedFraction float64
	TotalRecords   int
	Displayed      []models.Record
}

// New builds a controller over records. No page is loaded until the first
// demand signal.
func New(records []models.Record, opts Options) (*Controller, error) {
	if opts.PageSize <= 0 {
		return nil, errors.New("page size must be positive")
	}
	store, err := NewRecordStore(records)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewAnnotationID == nil {
		opts.NewAnnotationID = newAnnotationID
	}

	return &Controller{
		logger:    opts.Logger,
		store:     store,
		window:    NewWindow(opts.PageSize, store.Len()),
		selection: NewSelection(),
		scheduler: opts.Scheduler,
		pageDelay: opts.PageDelay,
		updated:   make(map[int]struct{}),
		reconcile: make(map[int]reconcileEntry),
		outbox:    opts.Outbox,
		now:       opts.Now,
		newID:     opts.NewAnnotationID,
	}, nil
}

// RequestMore is the explicit "load more" demand signal. It reports whether
// a page load was started.
func (c *Controller) RequestMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestLocked()
}

// OnScroll turns a scroll position near the bottom of the document into a
// demand signal.
func (c *Controller) OnScroll(pos models.ScrollPosition) bool {
	if pos.Top+pos.ViewportHeight < pos.DocumentHeight-scrollThreshold {
		return false
	}
	return c.RequestMore()
}

func (c *Controller) requestLocked() bool {
	if c.closed || !c.window.RequestPage() {
		metrics.ObserveDemandSignal(metrics.SignalDropped)
		return false
	}
	metrics.ObserveDemandSignal(metrics.SignalAccepted)

	started := time.Now()
	page := c.window.CurrentPage()
	c.cancelLoad = c.scheduler.AfterFunc(c.pageDelay, func() {
		c.completePage(page, started)
	})
	return true
}

func (c *Controller) completePage(page int, started time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLoad = nil
	if c.closed || c.window.CurrentPage() != page {
		return
	}
	n := c.window.CompletePage(c.store)
	metrics.ObservePageLoad(time.Since(started))
	c.logger.Debug("page materialized",
		slog.Int("page", page),
		slog.Int("records", n),
		slog.Int("displayed", c.window.Len()),
		slog.String("state", c.window.State().String()))
}

// Window returns a consistent snapshot of the window.
func (c *Controller) Window() WindowSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WindowSnapshot{
		State:          c.window.State(),
		PageSize:       c.window.PageSize(),
		CurrentPage:    c.window.CurrentPage(),
		TotalPages:     c.window.TotalPages(),
		Loading:        c.window.Loading(),
		LoadedFraction: c.window.LoadedFraction(),
		TotalRecords:   c.store.Len(),
		Displayed:      c.window.Displayed(),
	}
}

// Displayed returns copies of the displayed snapshots.
func (c *Controller) Displayed() []models.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window.Displayed()
}

// DisplayedRecord returns the window snapshot for id, if displayed.
func (c *Controller) DisplayedRecord(id int) (models.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window.Get(id)
}

// Record returns the authoritative copy of a record.
func (c *Controller) Record(id int) (models.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Get(id)
}

// Records returns every record in store order.
func (c *Controller) Records() []models.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.All()
}

// Close cancels a pending page load. Later demand signals are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	c.window.Abort()
}

// commitLocked is the only write path into record state: it replaces the
// store record and mirrors it into the window when displayed.
func (c *Controller) commitLocked(rec models.Record) bool {
	if !c.store.Replace(rec.ID, rec) {
		return false
	}
	c.window.Mirror(rec)
	return true
}

func newAnnotationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "ann_" + id.String()
}
