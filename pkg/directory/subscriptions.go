package directory

import "context"

// ServicePlan is an individually toggleable component of a SKU.
type ServicePlan struct {
	ServicePlanID      string `json:"servicePlanId"`
	ServicePlanName    string `json:"servicePlanName"`
	AppliesTo          string `json:"appliesTo"`
	ProvisioningStatus string `json:"provisioningStatus"`
}

// PrepaidUnits holds the purchased unit counters of a subscription.
type PrepaidUnits struct {
	Enabled   int `json:"enabled"`
	Suspended int `json:"suspended"`
	Warning   int `json:"warning"`
}

// SubscribedSku is a licensable product bundle as reported by the
// directory, including its service plans and capacity counters.
type SubscribedSku struct {
	SkuID            string        `json:"skuId"`
	SkuPartNumber    string        `json:"skuPartNumber"`
	CapabilityStatus string        `json:"capabilityStatus"`
	PrepaidUnits     PrepaidUnits  `json:"prepaidUnits"`
	ConsumedUnits    int           `json:"consumedUnits"`
	ServicePlans     []ServicePlan `json:"servicePlans"`
}

// AvailableUnits returns the number of unconsumed enabled units.
func (s SubscribedSku) AvailableUnits() int {
	return s.PrepaidUnits.Enabled - s.ConsumedUnits
}

// ListSubscriptions returns all subscribed SKUs with their service plans.
// This is the single catalog read performed per run.
func (c *Client) ListSubscriptions(ctx context.Context) ([]SubscribedSku, error) {
	var skus []SubscribedSku
	if err := c.get(ctx, "/api/v1/subscriptions", &skus); err != nil {
		return nil, err
	}
	return skus, nil
}
