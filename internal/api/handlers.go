package api

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/surendarrv/datagrid/internal/grid"
	"github.com/surendarrv/datagrid/internal/models"
	"github.com/surendarrv/datagrid/internal/utils"
)

// RecordView is a record together with the session state shown next to it.
type RecordView struct {
	Record        models.Record
	Selected      bool
	SalaryUpdated bool
	Reconcile     models.ReconcileState
	Summary       string
}

// IntField reads a required integral number field.
func IntField(req *structpb.Struct, name string) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%s is required", name)
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return int(n), nil
	case *structpb.Value_StringValue:
		n, err := strconv.Atoi(strings.TrimSpace(kind.StringValue))
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be an integer", name)
	}
}

// BoolField reads a required boolean field.
func BoolField(req *structpb.Struct, name string) (bool, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return false, fmt.Errorf("%s is required", name)
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean", name)
	}
	return b.BoolValue, nil
}

// OptionalBool reads a boolean field, defaulting to false.
func OptionalBool(req *structpb.Struct, name string) bool {
	return req.GetFields()[name].GetBoolValue()
}

// StringField reads an optional string field.
func StringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// StringListField reads an optional list of strings.
func StringListField(req *structpb.Struct, name string) ([]string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, nil
	}
	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of strings", name)
	}
	out := make([]string, 0, len(list.ListValue.GetValues()))
	for _, item := range list.ListValue.GetValues() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%s must be a list of strings", name)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

// SalaryCandidate returns the raw "salary" value for validation: a float64,
// a string, or nil when absent.
func SalaryCandidate(req *structpb.Struct) any {
	return req.GetFields()["salary"].AsInterface()
}

// ScrollFromRequest maps {top, viewportHeight, documentHeight}.
func ScrollFromRequest(req *structpb.Struct) (models.ScrollPosition, error) {
	var pos models.ScrollPosition
	fields := map[string]*float64{
		"top":            &pos.Top,
		"viewportHeight": &pos.ViewportHeight,
		"documentHeight": &pos.DocumentHeight,
	}
	for name, dst := range fields {
		v, ok := req.GetFields()[name].GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return models.ScrollPosition{}, fmt.Errorf("%s must be a number", name)
		}
		*dst = v.NumberValue
	}
	return pos, nil
}

// AnnotationToMap renders an annotation for a Struct response.
func AnnotationToMap(a models.Annotation) map[string]any {
	attachments := make([]any, 0, len(a.Attachments))
	for _, name := range a.Attachments {
		attachments = append(attachments, name)
	}
	return map[string]any{
		"id":          a.ID,
		"text":        a.Text,
		"timestamp":   utils.FormatTimestamp(a.Timestamp),
		"attachments": attachments,
	}
}

// AnnotationsToList renders a sequence of annotations.
func AnnotationsToList(list []models.Annotation) []any {
	out := make([]any, 0, len(list))
	for _, a := range list {
		out = append(out, AnnotationToMap(a))
	}
	return out
}

// RecordToMap renders a bare record.
func RecordToMap(rec models.Record) map[string]any {
	return map[string]any{
		"id":              rec.ID,
		"name":            rec.Name,
		"email":           rec.Email,
		"department":      rec.Department,
		"position":        rec.Position,
		"salary":          rec.Salary,
		"startDate":       rec.StartDate.Format("2006-01-02"),
		"status":          rec.Status,
		"annotationCount": len(rec.Annotations),
	}
}

// RecordViewToMap renders a record with its session state.
func RecordViewToMap(view RecordView) map[string]any {
	out := RecordToMap(view.Record)
	out["annotations"] = AnnotationsToList(view.Record.Annotations)
	out["selected"] = view.Selected
	out["salaryUpdated"] = view.SalaryUpdated
	out["reconcileState"] = string(view.Reconcile)
	out["summary"] = view.Summary
	return out
}

// WindowToMap renders a window snapshot; displayed records are included only
// when withRecords is set.
func WindowToMap(w grid.WindowSnapshot, withRecords bool) map[string]any {
	out := map[string]any{
		"state":          w.State.String(),
		"pageSize":       w.PageSize,
		"currentPage":    w.CurrentPage,
		"totalPages":     w.TotalPages,
		"loading":        w.Loading,
		"loadedFraction": w.LoadedFraction,
		"totalRecords":   w.TotalRecords,
		"displayedCount": len(w.Displayed),
	}
	if withRecords {
		records := make([]any, 0, len(w.Displayed))
		for _, rec := range w.Displayed {
			records = append(records, RecordToMap(rec))
		}
		out["records"] = records
	}
	return out
}

// IDsToList renders ids as a Struct list.
func IDsToList(ids []int) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, id)
	}
	return out
}

// FormatSelectedIDs joins ascending ids with ", ", or returns "" when empty.
func FormatSelectedIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ", ")
}

// NewResponse builds a Struct from fields.
func NewResponse(fields map[string]any) (*structpb.Struct, error) {
	return structpb.NewStruct(fields)
}
