// Package runner orchestrates a full reconciliation run: identifier
// resolution, catalog and current-state snapshots, and the sequential
// per-principal build/diff/execute cycle.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entraops/lictl/internal/logger"
	"github.com/entraops/lictl/pkg/catalog"
	"github.com/entraops/lictl/pkg/directory"
	"github.com/entraops/lictl/pkg/identity"
	"github.com/entraops/lictl/pkg/reconcile"
	"github.com/entraops/lictl/pkg/report"
)

// ErrNoIdentifiers is returned when resolution yields zero targets.
var ErrNoIdentifiers = errors.New("no valid identifiers resolved from the given inputs")

// DirectoryAPI is the directory surface the runner needs.
// *directory.Client satisfies it.
type DirectoryAPI interface {
	ListSubscriptions(ctx context.Context) ([]directory.SubscribedSku, error)
	QueryPrincipals(ctx context.Context, identifiers []string) ([]directory.Principal, error)
	AssignLicense(ctx context.Context, principalID string, req *directory.AssignLicenseRequest) (*directory.Principal, error)
}

// Options configures one reconciliation run.
type Options struct {
	// TargetSkuTokens are the SKUs to assign (part numbers or ids).
	// When empty, the Selector chooses from the full catalog.
	TargetSkuTokens []string
	// RemoveSkuTokens are SKUs to drop (upgrade/migration workflows).
	RemoveSkuTokens []string
	// DisablePlanTokens are plans to suppress within each target SKU.
	DisablePlanTokens []string
	// SelectPlans asks the Selector for plans to disable when no
	// DisablePlanTokens were given.
	SelectPlans bool
	// PreserveDisabled carries a principal's currently-disabled plans
	// into the new assignments.
	PreserveDisabled bool
	// DryRun computes plans without touching the directory.
	DryRun bool
	// Attempts and RetryDelay bound the transient-failure retry.
	Attempts   int
	RetryDelay time.Duration
}

// Runner drives reconciliation runs against one directory.
type Runner struct {
	api      DirectoryAPI
	selector Selector
}

// New creates a Runner. selector may be nil when all tokens are
// supplied through Options.
func New(api DirectoryAPI, selector Selector) *Runner {
	return &Runner{api: api, selector: selector}
}

// Run reconciles every resolved principal and returns the aggregated
// report. Run-level problems (unreachable catalog, zero identifiers,
// unknown SKU tokens) fail before any principal is touched;
// per-principal problems are recorded on that principal's outcome and
// never stop the loop.
func (r *Runner) Run(ctx context.Context, in identity.Input, opts Options) (*report.Aggregator, error) {
	runID := uuid.NewString()
	log := logger.With(logger.KeyRunID, runID, logger.KeyWorkflow, "assign")

	resolved := identity.Resolve(in)
	for _, warning := range resolved.Warnings {
		log.Warn(warning)
	}
	if len(resolved.Identifiers) == 0 {
		return nil, ErrNoIdentifiers
	}
	log.Info("identifiers resolved", logger.KeyCount, len(resolved.Identifiers))

	cat, err := catalog.Fetch(ctx, r.api)
	if err != nil {
		return nil, err
	}

	targets, err := r.resolveTargets(cat, opts)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, errors.New("no target SKUs selected")
	}
	parts := make([]string, 0, len(targets))
	for _, sku := range targets {
		parts = append(parts, sku.SkuPartNumber)
	}
	log.Info("targets resolved", logger.KeySku, strings.Join(parts, ","))

	disableTokens, err := r.resolveDisableTokens(targets, opts)
	if err != nil {
		return nil, err
	}
	if len(disableTokens) > 0 {
		log.Debug("plans to disable", logger.KeyPlan, strings.Join(disableTokens, ","))
	}

	removeSkuIDs, err := resolveRemoveIDs(cat, opts.RemoveSkuTokens)
	if err != nil {
		return nil, err
	}

	// One bulk read; current state is not re-fetched before apply, so
	// changes made externally after this point go undetected until the
	// directory rejects the call.
	principals, err := r.api.QueryPrincipals(ctx, resolved.Identifiers)
	if err != nil {
		return nil, fmt.Errorf("failed to query principals: %w", err)
	}
	byIdentifier := make(map[string]*directory.Principal, len(principals))
	for i := range principals {
		byIdentifier[strings.ToLower(principals[i].UserPrincipalName)] = &principals[i]
	}

	builder := reconcile.NewBuilder(cat)
	executor := reconcile.NewExecutor(r.api,
		reconcile.WithAttempts(opts.Attempts),
		reconcile.WithRetryDelay(opts.RetryDelay),
		reconcile.WithDryRun(opts.DryRun),
	)

	agg := report.NewAggregator()
	for _, id := range resolved.Identifiers {
		agg.Add(r.reconcileOne(ctx, log, id, byIdentifier[strings.ToLower(id)], builder, executor, targets, disableTokens, removeSkuIDs, opts))
	}

	log.Info("run complete", logger.KeyStatus, agg.Summary())
	return agg, nil
}

// reconcileOne runs one principal's full cycle. All state is local to
// the call; nothing carries over between principals.
func (r *Runner) reconcileOne(
	ctx context.Context,
	log *slog.Logger,
	id string,
	principal *directory.Principal,
	builder *reconcile.Builder,
	executor *reconcile.Executor,
	targets []directory.SubscribedSku,
	disableTokens []string,
	removeSkuIDs []string,
	opts Options,
) report.Outcome {
	if principal == nil {
		return report.Outcome{
			Identifier:  id,
			Status:      reconcile.StatusFailed,
			ErrorDetail: "principal not found in directory",
		}
	}

	desired := builder.Desired(targets, disableTokens, opts.PreserveDisabled, principal.AssignedLicenses)
	plan := reconcile.Diff(principal.AssignedLicenses, desired, removeSkuIDs)

	res := executor.Execute(ctx, principal.ID, plan)
	outcome := report.Outcome{
		Identifier: id,
		Status:     res.Status,
		Plan:       plan,
		Attempts:   res.Attempts,
	}
	if res.Err != nil {
		outcome.ErrorDetail = res.Err.Error()
	}

	log.Info("principal reconciled",
		logger.KeyPrincipal, id,
		logger.KeyStatus, string(res.Status))
	return outcome
}

// resolveTargets turns SKU tokens into catalog records, falling back
// to the Selector when no tokens were supplied.
func (r *Runner) resolveTargets(cat *catalog.Catalog, opts Options) ([]directory.SubscribedSku, error) {
	if len(opts.TargetSkuTokens) > 0 {
		return cat.ResolveSkus(opts.TargetSkuTokens)
	}
	if r.selector == nil {
		return nil, errors.New("no target SKUs given and no selector configured")
	}
	return r.selector.SelectSkus(cat.Skus())
}

// resolveDisableTokens returns the plan tokens to suppress, asking the
// Selector per target SKU when requested and none were supplied.
func (r *Runner) resolveDisableTokens(targets []directory.SubscribedSku, opts Options) ([]string, error) {
	if len(opts.DisablePlanTokens) > 0 || !opts.SelectPlans {
		return opts.DisablePlanTokens, nil
	}
	if r.selector == nil {
		return nil, errors.New("plan selection requested but no selector configured")
	}
	var tokens []string
	for _, sku := range targets {
		plans, err := r.selector.SelectPlans(sku, sku.ServicePlans)
		if err != nil {
			return nil, err
		}
		for _, plan := range plans {
			tokens = append(tokens, plan.ServicePlanID)
		}
	}
	return tokens, nil
}

// resolveRemoveIDs maps remove tokens to SKU ids. A token matching
// nothing is a run-level error since it applies to every principal.
func resolveRemoveIDs(cat *catalog.Catalog, tokens []string) ([]string, error) {
	var ids []string
	for _, token := range tokens {
		sku, err := cat.ResolveSku(token)
		if err != nil {
			return nil, err
		}
		ids = append(ids, sku.SkuID)
	}
	return ids, nil
}
