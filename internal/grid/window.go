package grid

import (
	"github.com/surendarrv/datagrid/internal/models"
)

// WindowState is the page-loading state of a Window.
type WindowState int

const (
	// StateIdle accepts the next demand signal.
	StateIdle WindowState = iota
	// StateLoadingPage has a page load in flight; demand signals are dropped.
	StateLoadingPage
	// StateExhausted has materialized every record.
	StateExhausted
)

func (s WindowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingPage:
		return "loading"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Window is the materialized, page-by-page grown prefix of a RecordStore.
// It holds snapshots, so every store write must be mirrored through Mirror.
type Window struct {
	pageSize    int
	currentPage int
	totalPages  int
	total       int
	state       WindowState
	displayed   []models.Record
	index       map[int]int
}

// NewWindow sizes a window over total records. totalPages is fixed here.
func NewWindow(pageSize, total int) *Window {
	w := &Window{
		pageSize:    pageSize,
		currentPage: 1,
		totalPages:  (total + pageSize - 1) / pageSize,
		total:       total,
		index:       make(map[int]int),
	}
	if w.currentPage > w.totalPages {
		w.state = StateExhausted
	}
	return w
}

// RequestPage moves Idle to LoadingPage. It returns false, changing nothing,
// when a load is already in flight or there is nothing left to load.
func (w *Window) RequestPage() bool {
	if w.state != StateIdle || w.currentPage > w.totalPages {
		return false
	}
	w.state = StateLoadingPage
	return true
}

// CompletePage appends the next page from store and returns how many
// records were materialized. It is a no-op unless a load is in flight.
func (w *Window) CompletePage(store *RecordStore) int {
	if w.state != StateLoadingPage {
		return 0
	}
	start := (w.currentPage - 1) * w.pageSize
	page := store.Slice(start, start+w.pageSize)
	for _, rec := range page {
		w.index[rec.ID] = len(w.displayed)
		w.displayed = append(w.displayed, rec)
	}
	w.currentPage++
	if w.currentPage > w.totalPages {
		w.state = StateExhausted
	} else {
		w.state = StateIdle
	}
	return len(page)
}

// Abort returns an in-flight load to Idle without appending anything.
func (w *Window) Abort() {
	if w.state == StateLoadingPage {
		w.state = StateIdle
	}
}

// Mirror overwrites the snapshot of rec.ID if it is displayed.
func (w *Window) Mirror(rec models.Record) bool {
	pos, ok := w.index[rec.ID]
	if !ok {
		return false
	}
	w.displayed[pos] = rec.Clone()
	return true
}

// Contains reports whether id is currently displayed.
func (w *Window) Contains(id int) bool {
	_, ok := w.index[id]
	return ok
}

// Get returns a copy of the displayed snapshot for id.
func (w *Window) Get(id int) (models.Record, bool) {
	pos, ok := w.index[id]
	if !ok {
		return models.Record{}, false
	}
	return w.displayed[pos].Clone(), true
}

// Displayed returns copies of the displayed snapshots in order.
func (w *Window) Displayed() []models.Record {
	out := make([]models.Record, 0, len(w.displayed))
	for _, rec := range w.displayed {
		out = append(out, rec.Clone())
	}
	return out
}

// LoadedFraction is |displayed|/|store| clamped to [0,1], or 0 when idle.
func (w *Window) LoadedFraction() float64 {
	if w.state != StateLoadingPage || w.total == 0 {
		return 0
	}
	return min(float64(len(w.displayed))/float64(w.total), 1)
}

// State returns the current state.
func (w *Window) State() WindowState { return w.state }

// Loading reports whether a page load is in flight.
func (w *Window) Loading() bool { return w.state == StateLoadingPage }

// PageSize returns the configured page size.
func (w *Window) PageSize() int { return w.pageSize }

// CurrentPage returns the next page to load (1-based).
func (w *Window) CurrentPage() int { return w.currentPage }

// TotalPages returns ceil(total/pageSize).
func (w *Window) TotalPages() int { return w.totalPages }

// Len returns the number of displayed records.
func (w *Window) Len() int { return len(w.displayed) }
