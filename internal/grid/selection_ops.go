package grid

import (
	"fmt"

	"github.com/surendarrv/datagrid/internal/utils"
)

// ToggleSelection selects or deselects id. Ids absent from the store are
// rejected so the selection never references a missing record.
func (c *Controller) ToggleSelection(id int, selected bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.store.Contains(id) {
		return fmt.Errorf("toggle selection of %d: %w", id, utils.ErrNotFound)
	}
	c.selection.Toggle(id, selected)
	return nil
}

// IsSelected reports whether id is selected.
func (c *Controller) IsSelected(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.IsSelected(id)
}

// SelectedIDs returns the selection in ascending order.
func (c *Controller) SelectedIDs() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.IDs()
}
