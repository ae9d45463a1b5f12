package services

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/surendarrv/datagrid/internal/grid"
	"github.com/surendarrv/datagrid/internal/models"
	"github.com/surendarrv/datagrid/internal/utils"
)

type instantScheduler struct {
	pending []func()
}

func (s *instantScheduler) AfterFunc(_ time.Duration, f func()) func() bool {
	s.pending = append(s.pending, f)
	return func() bool { return false }
}

func (s *instantScheduler) flush() {
	batch := s.pending
	s.pending = nil
	for _, f := range batch {
		f()
	}
}

type outboxStub struct{ updates []models.SalaryUpdate }

func (o *outboxStub) Submit(u models.SalaryUpdate) bool {
	o.updates = append(o.updates, u)
	return true
}

type latencyStub struct{ tracker *utils.LatencyTracker }

func (l latencyStub) Latency() *utils.LatencyTracker { return l.tracker }

func newService(t *testing.T, records int) (*GridService, *instantScheduler, *outboxStub) {
	t.Helper()
	sched := &instantScheduler{}
	outbox := &outboxStub{}
	ctrl, err := grid.New(grid.Synthetic(records, 11), grid.Options{PageSize: 20, Scheduler: sched, Outbox: outbox})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	t.Cleanup(ctrl.Close)
	tracker := utils.NewLatencyTracker(8)
	tracker.Observe(40 * time.Millisecond)
	return NewGridService(nil, ctrl, latencyStub{tracker: tracker}), sched, outbox
}

func req(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return s
}

func TestNewGridServiceRequestsFirstPage(t *testing.T) {
	svc, sched, _ := newService(t, 100)
	sched.flush()

	resp, err := svc.GetWindow(context.Background(), req(t, map[string]any{"includeRecords": true}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fields := resp.GetFields()
	if fields["displayedCount"].GetNumberValue() != 20 || len(fields["records"].GetListValue().GetValues()) != 20 {
		t.Fatalf("expected first page displayed, got %v", fields["displayedCount"])
	}
	if fields["currentPage"].GetNumberValue() != 2 || fields["totalPages"].GetNumberValue() != 5 {
		t.Fatalf("unexpected paging %v", fields)
	}
}

func TestLoadMoreDropsSignalsWhileLoading(t *testing.T) {
	svc, sched, _ := newService(t, 100)

	resp, err := svc.LoadMore(context.Background(), req(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.GetFields()["started"].GetBoolValue() {
		t.Fatalf("signal during the initial load must be dropped")
	}
	if !resp.GetFields()["window"].GetStructValue().GetFields()["loading"].GetBoolValue() {
		t.Fatalf("window should report loading")
	}
	sched.flush()

	resp, _ = svc.LoadMore(context.Background(), req(t, nil))
	if !resp.GetFields()["started"].GetBoolValue() {
		t.Fatalf("signal after the load settles should start a load")
	}
}

func TestScroll(t *testing.T) {
	svc, sched, _ := newService(t, 100)
	sched.flush()

	resp, err := svc.Scroll(context.Background(), req(t, map[string]any{"top": 1500, "viewportHeight": 500, "documentHeight": 2000}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.GetFields()["started"].GetBoolValue() {
		t.Fatalf("scroll at the bottom should start a load")
	}
	if _, err := svc.Scroll(context.Background(), req(t, map[string]any{"top": 1})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestCommitEditMapsErrors(t *testing.T) {
	svc, sched, outbox := newService(t, 40)
	sched.flush()
	ctx := context.Background()

	_, err := svc.CommitEdit(ctx, req(t, map[string]any{"id": 3, "salary": "50000.5"}))
	if status.Code(err) != codes.InvalidArgument || status.Convert(err).Message() != "Decimals are not allowed for salary values." {
		t.Fatalf("expected decimal rejection, got %v", err)
	}
	_, err = svc.CommitEdit(ctx, req(t, map[string]any{"id": 3, "salary": 200001}))
	if status.Convert(err).Message() != "Salary cannot exceed $200,000." {
		t.Fatalf("expected max rejection, got %v", err)
	}
	_, err = svc.CommitEdit(ctx, req(t, map[string]any{"id": 999, "salary": 100}))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	_, err = svc.CommitEdit(ctx, req(t, map[string]any{"salary": 100}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for missing id, got %v", err)
	}

	resp, err := svc.CommitEdit(ctx, req(t, map[string]any{"id": 3, "salary": 120000}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	record := resp.GetFields()["record"].GetStructValue().GetFields()
	if record["salary"].GetNumberValue() != 120000 || !record["salaryUpdated"].GetBoolValue() {
		t.Fatalf("unexpected record %v", record)
	}
	if resp.GetFields()["reconcileState"].GetStringValue() != string(models.ReconcilePending) {
		t.Fatalf("expected pending reconcile state")
	}
	if len(outbox.updates) != 1 || outbox.updates[0].NewSalary != 120000 {
		t.Fatalf("expected one dispatched update, got %+v", outbox.updates)
	}
}

func TestEditBufferLifecycle(t *testing.T) {
	svc, _, _ := newService(t, 10)
	ctx := context.Background()

	resp, err := svc.BeginEdit(ctx, req(t, map[string]any{"id": 2}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.GetFields()["salary"].GetNumberValue() <= 0 {
		t.Fatalf("expected current salary")
	}
	if _, err := svc.CancelEdit(ctx, req(t, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.BeginEdit(ctx, req(t, map[string]any{"id": 77})); status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestSelection(t *testing.T) {
	svc, _, _ := newService(t, 40)
	ctx := context.Background()

	for _, id := range []int{31, 4, 4} {
		if _, err := svc.ToggleSelection(ctx, req(t, map[string]any{"id": id, "selected": true})); err != nil {
			t.Fatalf("toggle %d: %v", id, err)
		}
	}
	resp, err := svc.GetSelection(ctx, req(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.GetFields()["display"].GetStringValue(); got != "4, 31" {
		t.Fatalf("unexpected selection display %q", got)
	}
	if _, err := svc.ToggleSelection(ctx, req(t, map[string]any{"id": 4})); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for missing flag, got %v", err)
	}
	if _, err := svc.ToggleSelection(ctx, req(t, map[string]any{"id": 404, "selected": true})); status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestAnnotations(t *testing.T) {
	svc, _, _ := newService(t, 10)
	ctx := context.Background()

	_, err := svc.AddAnnotation(ctx, req(t, map[string]any{"id": 1, "text": "   "}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for empty text, got %v", err)
	}

	resp, err := svc.AddAnnotation(ctx, req(t, map[string]any{"id": 1, "text": "hello", "attachments": []any{"a.png"}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.GetFields()["count"].GetNumberValue() != 1 || resp.GetFields()["summary"].GetStringValue() != "hello" {
		t.Fatalf("unexpected response %v", resp)
	}

	list, err := svc.ListAnnotations(ctx, req(t, map[string]any{"id": 1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	notes := list.GetFields()["annotations"].GetListValue().GetValues()
	if len(notes) != 1 || notes[0].GetStructValue().GetFields()["text"].GetStringValue() != "hello" {
		t.Fatalf("unexpected annotations %v", notes)
	}

	empty, _ := svc.ListAnnotations(ctx, req(t, map[string]any{"id": 2}))
	if empty.GetFields()["summary"].GetStringValue() != grid.NoAnnotationsSummary {
		t.Fatalf("expected no-comments summary")
	}
	if _, err := svc.ListAnnotations(ctx, req(t, map[string]any{"id": 404})); status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	svc, sched, _ := newService(t, 30)
	sched.flush()

	resp, err := svc.HealthCheck(context.Background(), req(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fields := resp.GetFields()
	if fields["status"].GetStringValue() != "SERVING" || fields["records"].GetNumberValue() != 30 || fields["displayed"].GetNumberValue() != 20 {
		t.Fatalf("unexpected health %v", fields)
	}
	if fields["reconcileP95Ms"].GetNumberValue() != 40 {
		t.Fatalf("expected reconcile latency from source, got %v", fields["reconcileP95Ms"])
	}
}
