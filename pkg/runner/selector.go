package runner

import (
	"strings"

	"github.com/entraops/lictl/pkg/catalog"
	"github.com/entraops/lictl/pkg/directory"
)

// Selector chooses target SKUs and plans to disable from candidate
// lists. The interactive implementation lives in the CLI layer; the
// core only ever talks to this interface, so runs are testable without
// a terminal.
type Selector interface {
	// SelectSkus picks the target SKUs from the catalog candidates.
	SelectSkus(candidates []directory.SubscribedSku) ([]directory.SubscribedSku, error)
	// SelectPlans picks the plans to disable within one SKU.
	SelectPlans(sku directory.SubscribedSku, candidates []directory.ServicePlan) ([]directory.ServicePlan, error)
}

// StaticSelector returns pre-supplied token sets without any
// interaction. A SKU token matching no candidate yields a
// catalog.LookupError; plan tokens follow the usual per-SKU scoping
// and are ignored when a SKU does not expose them.
type StaticSelector struct {
	SkuTokens  []string
	PlanTokens []string
}

// SelectSkus implements Selector. Tokens landing on the same SKU
// collapse to one record.
func (s StaticSelector) SelectSkus(candidates []directory.SubscribedSku) ([]directory.SubscribedSku, error) {
	var chosen []directory.SubscribedSku
	seen := make(map[string]bool, len(s.SkuTokens))
	for _, token := range s.SkuTokens {
		key := strings.ToLower(strings.TrimSpace(token))
		found := false
		for _, sku := range candidates {
			if strings.ToLower(sku.SkuPartNumber) == key || strings.ToLower(sku.SkuID) == key {
				if !seen[sku.SkuID] {
					seen[sku.SkuID] = true
					chosen = append(chosen, sku)
				}
				found = true
				break
			}
		}
		if !found {
			return nil, &catalog.LookupError{Token: token}
		}
	}
	return chosen, nil
}

// SelectPlans implements Selector.
func (s StaticSelector) SelectPlans(sku directory.SubscribedSku, candidates []directory.ServicePlan) ([]directory.ServicePlan, error) {
	var chosen []directory.ServicePlan
	for _, token := range s.PlanTokens {
		key := strings.ToLower(strings.TrimSpace(token))
		for _, plan := range candidates {
			if strings.ToLower(plan.ServicePlanName) == key || strings.ToLower(plan.ServicePlanID) == key {
				chosen = append(chosen, plan)
				break
			}
		}
	}
	return chosen, nil
}
