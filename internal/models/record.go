package models

import "time"

// Record is one employee row of the grid.
type Record struct {
	ID          int
	Name        string
	Email       string
	Department  string
	Position    string
	Salary      int
	StartDate   time.Time
	Status      string
	Annotations []Annotation
}

// Clone returns a deep copy so snapshots never alias store-owned slices.
func (r Record) Clone() Record {
	out := r
	if r.Annotations != nil {
		out.Annotations = make([]Annotation, len(r.Annotations))
		for i, a := range r.Annotations {
			out.Annotations[i] = a.Clone()
		}
	}
	return out
}

// Annotation is an immutable, timestamped note attached to a record.
type Annotation struct {
	ID          string
	Text        string
	Timestamp   time.Time
	Attachments []string
}

// Clone copies the attachment list.
func (a Annotation) Clone() Annotation {
	out := a
	out.Attachments = append([]string{}, a.Attachments...)
	return out
}

// RecordAnnotations is the persisted annotation sequence of one record.
type RecordAnnotations struct {
	ID          int
	Annotations []Annotation
}
