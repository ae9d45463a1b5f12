package grid

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/surendarrv/datagrid/internal/metrics"
	"github.com/surendarrv/datagrid/internal/models"
	"github.com/surendarrv/datagrid/internal/utils"
)

// EditBuffer is the single in-progress salary edit.
type EditBuffer struct {
	ID    int
	Input string
}

type reconcileEntry struct {
	state  models.ReconcileState
	salary int
}

// BeginEdit opens the edit buffer on id with its current salary, discarding
// any other unsaved edit.
func (c *Controller) BeginEdit(id int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.store.Get(id)
	if !ok {
		return 0, fmt.Errorf("begin edit of %d: %w", id, utils.ErrNotFound)
	}
	if c.edit != nil && c.edit.ID != id {
		c.logger.Debug("discarding unsaved edit", slog.Int("id", c.edit.ID))
	}
	c.edit = &EditBuffer{ID: id, Input: describeInput(rec.Salary)}
	return rec.Salary, nil
}

// CommitEdit validates candidate and, on success, writes the salary to the
// store and the window, clears the edit buffer and queues the remote update.
// A validation failure changes nothing except recording the rejected input
// in a buffer already open on id.
func (c *Controller) CommitEdit(id int, candidate any) (models.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	salary, err := ParseSalary(candidate)
	if err != nil {
		if c.edit != nil && c.edit.ID == id {
			c.edit.Input = describeInput(candidate)
		}
		metrics.ObserveSalaryEdit(metrics.EditInvalid)
		return models.Record{}, err
	}

	rec, ok := c.store.Get(id)
	if !ok {
		metrics.ObserveSalaryEdit(metrics.EditNotFound)
		c.logger.Debug("salary commit for unknown record", slog.Int("id", id))
		return models.Record{}, fmt.Errorf("commit salary of %d: %w", id, utils.ErrNotFound)
	}

	previous := rec.Salary
	rec.Salary = salary
	c.commitLocked(rec)
	c.updated[id] = struct{}{}
	c.edit = nil
	metrics.ObserveSalaryEdit(metrics.EditCommitted)

	c.logger.Info("salary updated",
		slog.Int("id", id),
		slog.Int("from", previous),
		slog.Int("to", salary),
		slog.Bool("displayed", c.window.Contains(id)))

	c.dispatchLocked(models.SalaryUpdate{EmployeeID: id, NewSalary: salary})
	return rec.Clone(), nil
}

// CancelEdit discards the edit buffer.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edit = nil
}

// Editing returns the open edit buffer, if any.
func (c *Controller) Editing() (EditBuffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil {
		return EditBuffer{}, false
	}
	return *c.edit, true
}

// HasUpdatedSalary reports whether id was ever committed locally,
// regardless of what the remote service said.
func (c *Controller) HasUpdatedSalary(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.updated[id]
	return ok
}

// UpdatedIDs returns every locally committed id in ascending order.
func (c *Controller) UpdatedIDs() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, 0, len(c.updated))
	for id := range c.updated {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// ReconcileState reports the remote status of the latest commit for id.
func (c *Controller) ReconcileState(id int) models.ReconcileState {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.reconcile[id]
	if !ok {
		return models.ReconcileNone
	}
	return entry.state
}

// ObserveReconciliation records the remote outcome of update. Outcomes for a
// superseded salary of the same record are ignored. Local state is never
// rolled back.
func (c *Controller) ObserveReconciliation(update models.SalaryUpdate, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.reconcile[update.EmployeeID]
	if !ok || entry.salary != update.NewSalary || entry.state != models.ReconcilePending {
		return
	}
	entry.state = models.ReconcileConfirmed
	if err != nil {
		entry.state = models.ReconcileFailed
	}
	c.reconcile[update.EmployeeID] = entry
}

func (c *Controller) dispatchLocked(update models.SalaryUpdate) {
	if c.outbox == nil {
		return
	}
	entry := reconcileEntry{state: models.ReconcilePending, salary: update.NewSalary}
	if !c.outbox.Submit(update) {
		entry.state = models.ReconcileFailed
		c.logger.Warn("salary update not queued for reconciliation",
			slog.Int("id", update.EmployeeID),
			slog.Int("salary", update.NewSalary))
	}
	c.reconcile[update.EmployeeID] = entry
}
