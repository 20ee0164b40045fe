package reconcile

import (
	"github.com/entraops/lictl/pkg/directory"
)

// Diff computes the minimal operation set moving a principal from its
// current assignments to the desired ones.
//
// removeSkuIDs is the caller's explicit remove list (empty for
// provisioning). Removing a SKU the principal never held is a silent
// no-op. A SKU appearing both in the remove list and among the desired
// targets is treated as a plan update: the add wins and the remove is
// dropped, so the principal never passes through an unlicensed state.
func Diff(current []directory.AssignedLicense, desired []DesiredAssignment, removeSkuIDs []string) Plan {
	held := make(map[string][]string, len(current))
	for _, lic := range current {
		held[lic.SkuID] = lic.DisabledPlans
	}

	targeted := make(map[string]bool, len(desired))
	for _, d := range desired {
		targeted[d.SkuID] = true
	}

	var plan Plan
	seenRemove := make(map[string]bool)
	for _, id := range removeSkuIDs {
		if _, ok := held[id]; !ok {
			continue
		}
		if targeted[id] || seenRemove[id] {
			continue
		}
		seenRemove[id] = true
		plan.RemoveSkuIDs = append(plan.RemoveSkuIDs, id)
	}

	for _, d := range desired {
		disabled, ok := held[d.SkuID]
		if ok && samePlanSet(disabled, d.DisabledPlanIDs) {
			continue
		}
		plan.AddAssignments = append(plan.AddAssignments, d)
	}

	return plan
}

// samePlanSet compares two disabled-plan lists as sets.
func samePlanSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
