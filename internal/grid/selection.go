package grid

import "slices"

// Selection is the set of selected record ids. Membership is independent of
// what the window currently displays.
type Selection struct {
	ids map[int]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[int]struct{})}
}

// Toggle adds or removes id. Repeating a toggle is a no-op.
func (s *Selection) Toggle(id int, selected bool) {
	if selected {
		s.ids[id] = struct{}{}
		return
	}
	delete(s.ids, id)
}

// IsSelected reports membership.
func (s *Selection) IsSelected(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.ids) }
