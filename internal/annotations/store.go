// Package annotations persists per-record annotation sequences to a kv
// backend and restores them into a grid controller at startup.
package annotations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/surendarrv/datagrid/internal/grid"
	"github.com/surendarrv/datagrid/internal/kv"
	"github.com/surendarrv/datagrid/internal/metrics"
	"github.com/surendarrv/datagrid/internal/models"
	"github.com/surendarrv/datagrid/internal/utils"
)

// DefaultKey is the kv key holding the whole annotation document.
const DefaultKey = "gridComments"

type storedAnnotation struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Timestamp   string   `json:"timestamp"`
	Attachments []string `json:"attachments"`
}

type storedRecord struct {
	ID       int                `json:"id"`
	Comments []storedAnnotation `json:"comments"`
}

// Store reads and writes the annotation document.
type Store struct {
	provider kv.Provider
	key      string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewStore wraps provider. An empty key selects DefaultKey and a
// non-positive timeout disables the per-call deadline.
func NewStore(provider kv.Provider, key string, timeout time.Duration, logger *slog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{provider: provider, key: key, timeout: timeout, logger: logger}
}

// Save writes the full collection, replacing whatever was stored.
func (s *Store) Save(ctx context.Context, entries []models.RecordAnnotations) error {
	doc := make([]storedRecord, 0, len(entries))
	for _, entry := range entries {
		rec := storedRecord{ID: entry.ID, Comments: make([]storedAnnotation, 0, len(entry.Annotations))}
		for _, a := range entry.Annotations {
			attachments := a.Attachments
			if attachments == nil {
				attachments = []string{}
			}
			rec.Comments = append(rec.Comments, storedAnnotation{
				ID:          a.ID,
				Text:        a.Text,
				Timestamp:   utils.FormatTimestamp(a.Timestamp),
				Attachments: attachments,
			})
		}
		doc = append(doc, rec)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return utils.NewAppError("annotations.save", "encode document", errors.Join(utils.ErrPersistence, err))
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.provider.Set(ctx, s.key, payload); err != nil {
		return utils.NewAppError("annotations.save", "write "+s.key, errors.Join(utils.ErrPersistence, err))
	}
	return nil
}

// Load reads the stored document. A missing key yields no entries and no
// error. An unparseable document returns an error wrapping
// utils.ErrPersistence; a single annotation with a bad timestamp is dropped
// and logged.
func (s *Store) Load(ctx context.Context) ([]models.RecordAnnotations, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	payload, err := s.provider.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewAppError("annotations.load", "read "+s.key, errors.Join(utils.ErrPersistence, err))
	}

	var doc []storedRecord
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, utils.NewAppError("annotations.load", "decode "+s.key, errors.Join(utils.ErrPersistence, err))
	}

	entries := make([]models.RecordAnnotations, 0, len(doc))
	for _, rec := range doc {
		entry := models.RecordAnnotations{ID: rec.ID, Annotations: make([]models.Annotation, 0, len(rec.Comments))}
		for _, c := range rec.Comments {
			ts, err := utils.ParseTimestamp(c.Timestamp)
			if err != nil {
				s.logger.Warn("dropping stored annotation with bad timestamp",
					slog.Int("id", rec.ID),
					slog.String("annotation_id", c.ID),
					slog.Any("error", err))
				continue
			}
			attachments := c.Attachments
			if attachments == nil {
				attachments = []string{}
			}
			entry.Annotations = append(entry.Annotations, models.Annotation{
				ID:          c.ID,
				Text:        c.Text,
				Timestamp:   ts,
				Attachments: attachments,
			})
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Controller is the part of grid.Controller the store attaches to.
type Controller interface {
	MergeAnnotations(entries []models.RecordAnnotations) (int, error)
	OnAnnotationCommit(hook grid.AnnotationHook)
}

// Attach restores persisted annotations into ctrl and registers a
// write-through hook so every later append rewrites the document. A load
// failure is logged and treated as an empty store; it must run before any
// annotation is appended.
func Attach(ctx context.Context, ctrl Controller, store *Store) error {
	entries, err := store.Load(ctx)
	if err != nil {
		store.logger.Error("annotation store unreadable, starting empty", slog.Any("error", err))
		entries = nil
	}
	merged, err := ctrl.MergeAnnotations(entries)
	if err != nil {
		return fmt.Errorf("restore annotations: %w", err)
	}
	store.logger.Info("annotations restored",
		slog.Int("records", merged),
		slog.String("key", store.key))

	ctrl.OnAnnotationCommit(func(entries []models.RecordAnnotations) {
		if err := store.Save(context.Background(), entries); err != nil {
			metrics.ObservePersistFailure()
			store.logger.Error("persist annotations", slog.Any("error", err))
		}
	})
	return nil
}
