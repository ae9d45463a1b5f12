package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/surendarrv/datagrid/internal/api"
	"github.com/surendarrv/datagrid/internal/grid"
	"github.com/surendarrv/datagrid/internal/utils"
)

// LatencySource exposes remote reconciliation latencies.
type LatencySource interface {
	Latency() *utils.LatencyTracker
}

// GridService implements the gRPC GridService on top of a grid.Controller.
type GridService struct {
	api.UnimplementedGridServer

	logger    *slog.Logger
	ctrl      *grid.Controller
	reconcile LatencySource
	latencies *utils.LatencyTracker
}

// NewGridService constructs the facade and issues the initial demand signal
// so the first page starts loading as soon as the session exists.
func NewGridService(logger *slog.Logger, ctrl *grid.Controller, reconcile LatencySource) *GridService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &GridService{
		logger:    logger,
		ctrl:      ctrl,
		reconcile: reconcile,
		latencies: utils.NewLatencyTracker(1024),
	}
	if ctrl.RequestMore() {
		logger.Debug("initial page load requested")
	}
	return s
}

// LoadMore is the explicit "load more" demand signal.
func (s *GridService) LoadMore(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	started := s.ctrl.RequestMore()
	return respond(map[string]any{
		"started": started,
		"window":  api.WindowToMap(s.ctrl.Window(), false),
	})
}

// Scroll turns a scroll position into a demand signal when near the bottom.
func (s *GridService) Scroll(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	pos, err := api.ScrollFromRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	started := s.ctrl.OnScroll(pos)
	return respond(map[string]any{
		"started": started,
		"window":  api.WindowToMap(s.ctrl.Window(), false),
	})
}

// GetWindow returns the window state; set includeRecords for the displayed
// records.
func (s *GridService) GetWindow(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return respond(api.WindowToMap(s.ctrl.Window(), api.OptionalBool(req, "includeRecords")))
}

// GetRecord returns one record with its selection, edit and annotation state.
func (s *GridService) GetRecord(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := api.IntField(req, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	view, ok := s.view(id)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "record %d not found", id)
	}
	return respond(api.RecordViewToMap(view))
}

// ToggleSelection selects or deselects a record.
func (s *GridService) ToggleSelection(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := api.IntField(req, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	selected, err := api.BoolField(req, "selected")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.ctrl.ToggleSelection(id, selected); err != nil {
		return nil, s.toStatus("toggle selection", err)
	}
	return s.selection()
}

// GetSelection returns the selected ids in ascending order.
func (s *GridService) GetSelection(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.selection()
}

// BeginEdit opens the edit buffer on a record.
func (s *GridService) BeginEdit(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := api.IntField(req, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	salary, err := s.ctrl.BeginEdit(id)
	if err != nil {
		return nil, s.toStatus("begin edit", err)
	}
	return respond(map[string]any{"id": id, "salary": salary})
}

// CommitEdit validates and commits a salary.
func (s *GridService) CommitEdit(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := api.IntField(req, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	start := time.Now()
	rec, err := s.ctrl.CommitEdit(id, api.SalaryCandidate(req))
	if err != nil {
		return nil, s.toStatus("commit edit", err)
	}
	s.observe(time.Since(start))

	view, _ := s.view(rec.ID)
	return respond(map[string]any{
		"record":         api.RecordViewToMap(view),
		"reconcileState": string(view.Reconcile),
	})
}

// CancelEdit discards the edit buffer.
func (s *GridService) CancelEdit(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.ctrl.CancelEdit()
	return respond(map[string]any{})
}

// AddAnnotation appends a note to a record.
func (s *GridService) AddAnnotation(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := api.IntField(req, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	attachments, err := api.StringListField(req, "attachments")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	annotation, err := s.ctrl.AddAnnotation(id, api.StringField(req, "text"), attachments)
	if err != nil {
		return nil, s.toStatus("add annotation", err)
	}
	return respond(map[string]any{
		"annotation": api.AnnotationToMap(annotation),
		"count":      s.ctrl.AnnotationCount(id),
		"summary":    s.ctrl.LatestAnnotationSummary(id),
	})
}

// ListAnnotations returns a record's annotations in append order.
func (s *GridService) ListAnnotations(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := api.IntField(req, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	rec, ok := s.ctrl.Record(id)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "record %d not found", id)
	}
	return respond(map[string]any{
		"annotations": api.AnnotationsToList(rec.Annotations),
		"count":       len(rec.Annotations),
		"summary":     s.ctrl.LatestAnnotationSummary(id),
	})
}

// HealthCheck returns the current health state.
func (s *GridService) HealthCheck(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	win := s.ctrl.Window()
	fields := map[string]any{
		"status":       "SERVING",
		"records":      win.TotalRecords,
		"displayed":    len(win.Displayed),
		"windowState":  win.State.String(),
		"selected":     len(s.ctrl.SelectedIDs()),
		"updated":      len(s.ctrl.UpdatedIDs()),
		"commitP95Ms":  millis(s.latencies.Percentile(95)),
	}
	if s.reconcile != nil {
		fields["reconcileP95Ms"] = millis(s.reconcile.Latency().Percentile(95))
	}
	return respond(fields)
}

// CommitLatencyP95 returns the p95 latency of successful commits.
func (s *GridService) CommitLatencyP95() time.Duration {
	return s.latencies.Percentile(95)
}

func (s *GridService) observe(d time.Duration) {
	s.latencies.Observe(d)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("commit latency", slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}
}

func (s *GridService) selection() (*structpb.Struct, error) {
	ids := s.ctrl.SelectedIDs()
	return respond(map[string]any{
		"selectedIds": api.IDsToList(ids),
		"display":     api.FormatSelectedIDs(ids),
	})
}

func (s *GridService) view(id int) (api.RecordView, bool) {
	rec, ok := s.ctrl.Record(id)
	if !ok {
		return api.RecordView{}, false
	}
	return api.RecordView{
		Record:        rec,
		Selected:      s.ctrl.IsSelected(id),
		SalaryUpdated: s.ctrl.HasUpdatedSalary(id),
		Reconcile:     s.ctrl.ReconcileState(id),
		Summary:       s.ctrl.LatestAnnotationSummary(id),
	}, true
}

// toStatus maps controller errors onto gRPC codes.
func (s *GridService) toStatus(op string, err error) error {
	var ve *utils.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Reason)
	case errors.Is(err, utils.ErrNotFound):
		s.logger.Debug(op+" on unknown record", slog.Any("error", err))
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, grid.ErrAnnotationsMutated):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		s.logger.Error(op+" failed", slog.Any("error", err))
		return status.Error(codes.Internal, op+" failed")
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func respond(fields map[string]any) (*structpb.Struct, error) {
	resp, err := api.NewResponse(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

var _ api.GridServer = (*GridService)(nil)
