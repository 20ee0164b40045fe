package reconcile

import (
	"sort"
	"strings"

	"github.com/entraops/lictl/pkg/catalog"
	"github.com/entraops/lictl/pkg/directory"
)

// Builder constructs desired license assignments. It is pure: identical
// inputs always yield identical output, independent of map iteration
// order.
type Builder struct {
	catalog *catalog.Catalog
}

// NewBuilder creates a Builder over the run's catalog snapshot.
func NewBuilder(cat *catalog.Catalog) *Builder {
	return &Builder{catalog: cat}
}

// Desired produces one DesiredAssignment per target SKU.
//
// disableTokens are the caller's plan tokens; tokens not matching a
// plan of a given target SKU are ignored for that SKU. When preserve is
// set, the plans currently disabled on the principal (under any of its
// SKUs) are carried over into each target SKU where the same plan — by
// id or by name — exists.
func (b *Builder) Desired(targets []directory.SubscribedSku, disableTokens []string, preserve bool, current []directory.AssignedLicense) []DesiredAssignment {
	var preservedIDs map[string]bool
	var preservedNames map[string]bool
	if preserve {
		preservedIDs, preservedNames = b.currentlyDisabled(current)
	}

	desired := make([]DesiredAssignment, 0, len(targets))
	for _, sku := range targets {
		ids := make(map[string]bool)
		for _, id := range catalog.ResolvePlanTokens(sku, disableTokens) {
			ids[id] = true
		}
		if preserve {
			for _, plan := range sku.ServicePlans {
				if preservedIDs[plan.ServicePlanID] || preservedNames[strings.ToLower(plan.ServicePlanName)] {
					ids[plan.ServicePlanID] = true
				}
			}
		}

		assignment := DesiredAssignment{SkuID: sku.SkuID}
		if len(ids) > 0 {
			assignment.DisabledPlanIDs = make([]string, 0, len(ids))
			for id := range ids {
				assignment.DisabledPlanIDs = append(assignment.DisabledPlanIDs, id)
			}
			sort.Strings(assignment.DisabledPlanIDs)
		}
		desired = append(desired, assignment)
	}
	return desired
}

// currentlyDisabled collects the ids and (via the catalog) the names of
// every plan the principal currently has disabled, across all its SKUs.
func (b *Builder) currentlyDisabled(current []directory.AssignedLicense) (ids map[string]bool, names map[string]bool) {
	ids = make(map[string]bool)
	names = make(map[string]bool)
	for _, lic := range current {
		sku, err := b.catalog.ResolveSku(lic.SkuID)
		for _, planID := range lic.DisabledPlans {
			ids[planID] = true
			if err != nil {
				continue
			}
			for _, plan := range sku.ServicePlans {
				if plan.ServicePlanID == planID {
					names[strings.ToLower(plan.ServicePlanName)] = true
					break
				}
			}
		}
	}
	return ids, names
}
