// Package report accumulates per-principal reconciliation outcomes
// into an ordered run report. The aggregator is an explicit value
// threaded through the run and returned at the end; there is no
// ambient report state.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/entraops/lictl/pkg/reconcile"
)

// Outcome is the result of one principal's reconciliation cycle.
type Outcome struct {
	Identifier  string                      `json:"identifier"`
	Status      reconcile.Status            `json:"status"`
	Plan        reconcile.Plan              `json:"plan"`
	Attempts    int                         `json:"attempts,omitempty"`
	ErrorDetail string                      `json:"errorDetail,omitempty"`
	// Source echoes the original input record for CSV-driven
	// provisioning. It is never interpreted, only exported.
	Source map[string]string `json:"source,omitempty"`
	// Credential is the generated initial password, when provisioning
	// created the principal in this run.
	Credential string `json:"credential,omitempty"`
}

// Aggregator collects outcomes in input resolution order.
type Aggregator struct {
	outcomes []Outcome
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add appends one outcome.
func (a *Aggregator) Add(o Outcome) {
	a.outcomes = append(a.outcomes, o)
}

// Outcomes returns the accumulated outcomes in input order.
func (a *Aggregator) Outcomes() []Outcome {
	return a.outcomes
}

// Len returns the number of accumulated outcomes.
func (a *Aggregator) Len() int {
	return len(a.outcomes)
}

// Counts returns the number of outcomes per status.
func (a *Aggregator) Counts() map[reconcile.Status]int {
	counts := make(map[reconcile.Status]int)
	for _, o := range a.outcomes {
		counts[o.Status]++
	}
	return counts
}

// Summary returns a one-line human summary of the run.
func (a *Aggregator) Summary() string {
	counts := a.Counts()
	return fmt.Sprintf("%d processed: %d succeeded, %d failed, %d dry-run, %d already up to date",
		len(a.outcomes),
		counts[reconcile.StatusSuccess],
		counts[reconcile.StatusFailed],
		counts[reconcile.StatusDryRun],
		counts[reconcile.StatusSkippedNoOp])
}

// HasFailures reports whether any outcome failed.
func (a *Aggregator) HasFailures() bool {
	for _, o := range a.outcomes {
		if o.Status == reconcile.StatusFailed {
			return true
		}
	}
	return false
}

// Headers implements output.TableRenderer.
func (a *Aggregator) Headers() []string {
	return []string{"Identifier", "Status", "Added SKUs", "Removed SKUs", "Disabled Plans", "Error"}
}

// Rows implements output.TableRenderer.
func (a *Aggregator) Rows() [][]string {
	rows := make([][]string, 0, len(a.outcomes))
	for _, o := range a.outcomes {
		rows = append(rows, []string{
			o.Identifier,
			string(o.Status),
			dashWhenEmpty(joinAddedSkus(o.Plan)),
			dashWhenEmpty(strings.Join(o.Plan.RemoveSkuIDs, ";")),
			dashWhenEmpty(joinDisabledPlans(o.Plan)),
			dashWhenEmpty(o.ErrorDetail),
		})
	}
	return rows
}

// WriteCSV exports the report. The fixed columns come first; the union
// of source-record columns (sorted for a stable layout) follows, so
// provisioning input rows round-trip alongside the computed results.
func (a *Aggregator) WriteCSV(w io.Writer) error {
	extra := a.sourceColumns()
	hasCredential := false
	for _, o := range a.outcomes {
		if o.Credential != "" {
			hasCredential = true
			break
		}
	}

	header := []string{"identifier", "status", "applied_skus", "removed_skus", "applied_disabled_plans", "attempts", "error"}
	if hasCredential {
		header = append(header, "password")
	}
	header = append(header, extra...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, o := range a.outcomes {
		row := []string{
			o.Identifier,
			string(o.Status),
			joinAddedSkus(o.Plan),
			strings.Join(o.Plan.RemoveSkuIDs, ";"),
			joinDisabledPlans(o.Plan),
			fmt.Sprintf("%d", o.Attempts),
			o.ErrorDetail,
		}
		if hasCredential {
			row = append(row, o.Credential)
		}
		for _, col := range extra {
			row = append(row, o.Source[col])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// sourceColumns returns the sorted union of source-record keys.
func (a *Aggregator) sourceColumns() []string {
	set := make(map[string]bool)
	for _, o := range a.outcomes {
		for k := range o.Source {
			set[k] = true
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func joinAddedSkus(p reconcile.Plan) string {
	ids := make([]string, 0, len(p.AddAssignments))
	for _, a := range p.AddAssignments {
		ids = append(ids, a.SkuID)
	}
	return strings.Join(ids, ";")
}

func joinDisabledPlans(p reconcile.Plan) string {
	var parts []string
	for _, a := range p.AddAssignments {
		if len(a.DisabledPlanIDs) == 0 {
			continue
		}
		parts = append(parts, a.SkuID+":"+strings.Join(a.DisabledPlanIDs, "+"))
	}
	return strings.Join(parts, ";")
}

func dashWhenEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
