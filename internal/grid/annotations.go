package grid

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/surendarrv/datagrid/internal/metrics"
	"github.com/surendarrv/datagrid/internal/models"
	"github.com/surendarrv/datagrid/internal/utils"
)

const (
	// SummaryLimit is the number of runes kept by LatestAnnotationSummary.
	SummaryLimit = 50
	// NoAnnotationsSummary is the summary of a record without annotations.
	NoAnnotationsSummary = "No comments"
)

// ErrAnnotationsMutated is returned by MergeAnnotations once annotations
// have been appended in this process; merging would discard them.
var ErrAnnotationsMutated = errors.New("annotations already mutated in this session")

// AnnotationHook runs synchronously after every successful append with the
// annotation sequences of every record, in store order.
type AnnotationHook func(entries []models.RecordAnnotations)

// OnAnnotationCommit registers a hook. Hooks run under the controller lock
// and must not call back into the controller.
func (c *Controller) OnAnnotationCommit(hook AnnotationHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// AddAnnotation appends a note to record id and mirrors it into the window,
// then runs the commit hooks.
func (c *Controller) AddAnnotation(id int, text string, attachments []string) (models.Annotation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text = strings.TrimSpace(text)
	if text == "" {
		return models.Annotation{}, utils.NewValidationError("annotation", "", "text must not be empty")
	}
	rec, ok := c.store.Get(id)
	if !ok {
		return models.Annotation{}, fmt.Errorf("annotate %d: %w", id, utils.ErrNotFound)
	}

	annotation := models.Annotation{
		ID:          c.newID(),
		Text:        text,
		Timestamp:   c.now(),
		Attachments: append([]string{}, attachments...),
	}
	rec.Annotations = append(rec.Annotations, annotation)
	c.commitLocked(rec)
	c.annotated = true
	metrics.ObserveAnnotation()

	c.logger.Debug("annotation added",
		slog.Int("id", id),
		slog.String("annotation_id", annotation.ID),
		slog.Int("attachments", len(annotation.Attachments)))

	if len(c.hooks) > 0 {
		entries := c.annotationEntriesLocked()
		for _, hook := range c.hooks {
			hook(entries)
		}
	}
	return annotation.Clone(), nil
}

// MergeAnnotations replaces the annotation sequence of every record that has
// an entry; the first entry for an id wins and unknown ids are skipped. It
// returns the number of records updated.
func (c *Controller) MergeAnnotations(entries []models.RecordAnnotations) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.annotated {
		return 0, ErrAnnotationsMutated
	}

	merged := 0
	seen := make(map[int]struct{}, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.ID]; dup {
			continue
		}
		seen[entry.ID] = struct{}{}

		rec, ok := c.store.Get(entry.ID)
		if !ok {
			c.logger.Debug("stored annotations for unknown record", slog.Int("id", entry.ID))
			continue
		}
		rec.Annotations = make([]models.Annotation, 0, len(entry.Annotations))
		for _, a := range entry.Annotations {
			rec.Annotations = append(rec.Annotations, a.Clone())
		}
		c.commitLocked(rec)
		merged++
	}
	return merged, nil
}

// Annotations returns a copy of the annotation sequence of id.
func (c *Controller) Annotations(id int) []models.Annotation {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.store.Get(id)
	if !ok {
		return nil
	}
	return rec.Annotations
}

// AnnotationCount returns how many annotations id carries.
func (c *Controller) AnnotationCount(id int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos, ok := c.store.FindIndex(id)
	if !ok {
		return 0
	}
	return len(c.store.records[pos].Annotations)
}

// LatestAnnotationSummary returns the newest annotation text, clipped to
// SummaryLimit runes followed by "...".
func (c *Controller) LatestAnnotationSummary(id int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos, ok := c.store.FindIndex(id)
	if !ok {
		return NoAnnotationsSummary
	}
	annotations := c.store.records[pos].Annotations
	if len(annotations) == 0 {
		return NoAnnotationsSummary
	}
	return Summarize(annotations[len(annotations)-1].Text)
}

// AnnotationEntries returns the annotation sequence of every record.
func (c *Controller) AnnotationEntries() []models.RecordAnnotations {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.annotationEntriesLocked()
}

func (c *Controller) annotationEntriesLocked() []models.RecordAnnotations {
	entries := make([]models.RecordAnnotations, 0, c.store.Len())
	for _, rec := range c.store.records {
		annotations := make([]models.Annotation, 0, len(rec.Annotations))
		for _, a := range rec.Annotations {
			annotations = append(annotations, a.Clone())
		}
		entries = append(entries, models.RecordAnnotations{ID: rec.ID, Annotations: annotations})
	}
	return entries
}

// Summarize clips text to SummaryLimit runes.
func Summarize(text string) string {
	runes := []rune(text)
	if len(runes) <= SummaryLimit {
		return text
	}
	return string(runes[:SummaryLimit]) + "..."
}
