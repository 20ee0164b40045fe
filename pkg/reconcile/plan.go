// Package reconcile implements the license state reconciliation
// engine: desired-state construction, diffing against a principal's
// current assignments, and resilient execution of the resulting plan.
package reconcile

// Status is the outcome classification of one principal's cycle.
type Status string

const (
	StatusSuccess     Status = "Success"
	StatusFailed      Status = "Failed"
	StatusDryRun      Status = "DryRun"
	StatusSkippedNoOp Status = "SkippedNoOp"
)

// DesiredAssignment is one target SKU with the service plans to
// suppress inside it. DisabledPlanIDs is sorted and only ever contains
// ids belonging to that SKU's own plan set; nil means a bare assignment
// with every plan enabled.
type DesiredAssignment struct {
	SkuID           string   `json:"skuId"`
	DisabledPlanIDs []string `json:"disabledPlanIds,omitempty"`
}

// Plan is the minimal operation set moving one principal from current
// to desired state. A SKU id never appears in both sets.
type Plan struct {
	RemoveSkuIDs   []string            `json:"removeSkuIds,omitempty"`
	AddAssignments []DesiredAssignment `json:"addAssignments,omitempty"`
}

// IsNoOp reports whether the plan requires no API call.
func (p Plan) IsNoOp() bool {
	return len(p.RemoveSkuIDs) == 0 && len(p.AddAssignments) == 0
}
