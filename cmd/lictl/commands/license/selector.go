package license

import (
	"fmt"

	"github.com/entraops/lictl/internal/cli/prompt"
	"github.com/entraops/lictl/pkg/directory"
)

// interactiveSelector asks the operator to pick SKUs and plans on the
// terminal. It satisfies runner.Selector.
type interactiveSelector struct{}

func (interactiveSelector) SelectSkus(candidates []directory.SubscribedSku) ([]directory.SubscribedSku, error) {
	options := make([]prompt.SelectOption, 0, len(candidates))
	byID := make(map[string]directory.SubscribedSku, len(candidates))
	for _, sku := range candidates {
		options = append(options, prompt.SelectOption{
			Label: fmt.Sprintf("%s (%d available)", sku.SkuPartNumber, sku.AvailableUnits()),
			Value: sku.SkuID,
		})
		byID[sku.SkuID] = sku
	}

	chosen, err := prompt.MultiSelect("Select SKUs to assign", options)
	if err != nil {
		return nil, err
	}

	skus := make([]directory.SubscribedSku, 0, len(chosen))
	for _, id := range chosen {
		skus = append(skus, byID[id])
	}
	return skus, nil
}

func (interactiveSelector) SelectPlans(sku directory.SubscribedSku, candidates []directory.ServicePlan) ([]directory.ServicePlan, error) {
	options := make([]prompt.SelectOption, 0, len(candidates))
	byID := make(map[string]directory.ServicePlan, len(candidates))
	for _, plan := range candidates {
		options = append(options, prompt.SelectOption{
			Label: plan.ServicePlanName,
			Value: plan.ServicePlanID,
		})
		byID[plan.ServicePlanID] = plan
	}

	chosen, err := prompt.MultiSelect(
		fmt.Sprintf("Select plans to disable in %s", sku.SkuPartNumber), options)
	if err != nil {
		return nil, err
	}

	plans := make([]directory.ServicePlan, 0, len(chosen))
	for _, id := range chosen {
		plans = append(plans, byID[id])
	}
	return plans, nil
}
