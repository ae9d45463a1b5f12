package models

// SalaryUpdate is the request body accepted by the remote update service.
type SalaryUpdate struct {
	EmployeeID int `json:"employeeId"`
	NewSalary  int `json:"newSalary"`
}

// ReconcileState tracks what the remote service has said about a committed edit.
type ReconcileState string

const (
	// ReconcileNone means the record was never committed locally.
	ReconcileNone ReconcileState = "none"
	// ReconcilePending means the update is queued or in flight.
	ReconcilePending ReconcileState = "pending"
	// ReconcileConfirmed means the remote service accepted the update.
	ReconcileConfirmed ReconcileState = "confirmed"
	// ReconcileFailed means the update was rejected, errored or dropped.
	ReconcileFailed ReconcileState = "failed"
)

// ScrollPosition is the viewport geometry reported by the presentation layer.
type ScrollPosition struct {
	Top            float64
	ViewportHeight float64
	DocumentHeight float64
}
