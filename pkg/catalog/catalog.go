// Package catalog resolves human-given SKU and service-plan tokens into
// canonical catalog records fetched once per run.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/entraops/lictl/pkg/directory"
)

// LookupError indicates a token that matched nothing in the catalog.
type LookupError struct {
	Token string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("no SKU in the catalog matches %q", e.Token)
}

// SubscriptionLister is the single directory read the catalog needs.
type SubscriptionLister interface {
	ListSubscriptions(ctx context.Context) ([]directory.SubscribedSku, error)
}

// Catalog is an immutable snapshot of the subscribed SKUs, indexed for
// token lookup. Tokens match either the SKU part number or the SKU id,
// case-insensitively.
type Catalog struct {
	skus   []directory.SubscribedSku
	byID   map[string]int
	byPart map[string]int
}

// New builds a catalog over the given SKU snapshot.
func New(skus []directory.SubscribedSku) *Catalog {
	c := &Catalog{
		skus:   skus,
		byID:   make(map[string]int, len(skus)),
		byPart: make(map[string]int, len(skus)),
	}
	for i, sku := range skus {
		c.byID[strings.ToLower(sku.SkuID)] = i
		c.byPart[strings.ToLower(sku.SkuPartNumber)] = i
	}
	return c
}

// Fetch performs the one catalog read of the run and indexes the result.
func Fetch(ctx context.Context, lister SubscriptionLister) (*Catalog, error) {
	skus, err := lister.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch SKU catalog: %w", err)
	}
	return New(skus), nil
}

// Skus returns the full SKU snapshot in catalog order.
func (c *Catalog) Skus() []directory.SubscribedSku {
	return c.skus
}

// ResolveSku resolves a token against skuPartNumber or skuId.
func (c *Catalog) ResolveSku(token string) (directory.SubscribedSku, error) {
	key := strings.ToLower(strings.TrimSpace(token))
	if i, ok := c.byPart[key]; ok {
		return c.skus[i], nil
	}
	if i, ok := c.byID[key]; ok {
		return c.skus[i], nil
	}
	return directory.SubscribedSku{}, &LookupError{Token: token}
}

// ResolveSkus resolves every token, failing on the first miss. Tokens
// landing on the same SKU (case variants, or a part number next to its
// id) collapse to one record, first occurrence wins.
func (c *Catalog) ResolveSkus(tokens []string) ([]directory.SubscribedSku, error) {
	skus := make([]directory.SubscribedSku, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		sku, err := c.ResolveSku(token)
		if err != nil {
			return nil, err
		}
		if seen[sku.SkuID] {
			continue
		}
		seen[sku.SkuID] = true
		skus = append(skus, sku)
	}
	return skus, nil
}

// ResolvePlanTokens maps plan tokens to the plan ids of one specific SKU.
// Tokens match servicePlanName or servicePlanId, case-insensitively.
// Tokens matching no plan of this SKU are ignored: the same token list is
// commonly applied across several target SKUs that do not all expose the
// same plans.
func ResolvePlanTokens(sku directory.SubscribedSku, tokens []string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, token := range tokens {
		key := strings.ToLower(strings.TrimSpace(token))
		for _, plan := range sku.ServicePlans {
			if strings.ToLower(plan.ServicePlanName) != key && strings.ToLower(plan.ServicePlanID) != key {
				continue
			}
			if !seen[plan.ServicePlanID] {
				seen[plan.ServicePlanID] = true
				ids = append(ids, plan.ServicePlanID)
			}
			break
		}
	}
	return ids
}
