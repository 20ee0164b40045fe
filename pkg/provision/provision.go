// Package provision creates directory principals from a CSV and
// licenses them in the same pass. Creation and licensing share a row:
// a freshly generated credential, one create call, then the usual
// reconcile cycle against an empty current state.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/entraops/lictl/internal/logger"
	"github.com/entraops/lictl/pkg/catalog"
	"github.com/entraops/lictl/pkg/directory"
	"github.com/entraops/lictl/pkg/password"
	"github.com/entraops/lictl/pkg/reconcile"
	"github.com/entraops/lictl/pkg/report"
)

// DirectoryAPI is the directory surface provisioning needs.
// *directory.Client satisfies it.
type DirectoryAPI interface {
	ListSubscriptions(ctx context.Context) ([]directory.SubscribedSku, error)
	CreatePrincipal(ctx context.Context, req *directory.CreatePrincipalRequest) (*directory.Principal, error)
	AssignLicense(ctx context.Context, principalID string, req *directory.AssignLicenseRequest) (*directory.Principal, error)
}

// Options configures one provisioning run.
type Options struct {
	// TargetSkuTokens are the SKUs each new account receives.
	TargetSkuTokens []string
	// DisablePlanTokens are plans to suppress within each target SKU.
	DisablePlanTokens []string
	// PasswordLength for generated credentials; 0 means the default.
	PasswordLength int
	// ForceChange requires a password change at first sign-in.
	ForceChange bool
	// DryRun computes everything but creates and licenses nothing.
	DryRun bool
	// Attempts and RetryDelay bound the license-call retry.
	Attempts   int
	RetryDelay time.Duration
}

// Provisioner creates and licenses accounts against one directory.
type Provisioner struct {
	api DirectoryAPI
}

// New creates a Provisioner.
func New(api DirectoryAPI) *Provisioner {
	return &Provisioner{api: api}
}

// Run provisions every row and returns the aggregated report. The
// catalog fetch and SKU token resolution are run-fatal; everything
// after that is isolated per row, including the create call, so one
// bad row never blocks the rest of the file.
func (p *Provisioner) Run(ctx context.Context, rows []Row, opts Options) (*report.Aggregator, error) {
	if len(rows) == 0 {
		return nil, errors.New("no provisioning rows to process")
	}
	if len(opts.TargetSkuTokens) == 0 {
		return nil, errors.New("no target SKUs given")
	}

	runID := uuid.NewString()
	log := logger.With(logger.KeyRunID, runID, logger.KeyWorkflow, "provision")

	cat, err := catalog.Fetch(ctx, p.api)
	if err != nil {
		return nil, err
	}
	targets, err := cat.ResolveSkus(opts.TargetSkuTokens)
	if err != nil {
		return nil, err
	}

	builder := reconcile.NewBuilder(cat)
	executor := reconcile.NewExecutor(p.api,
		reconcile.WithAttempts(opts.Attempts),
		reconcile.WithRetryDelay(opts.RetryDelay),
		reconcile.WithDryRun(opts.DryRun),
	)

	agg := report.NewAggregator()
	for _, row := range rows {
		agg.Add(p.provisionOne(ctx, log, row, builder, executor, targets, opts))
	}

	log.Info("run complete", logger.KeyStatus, agg.Summary())
	return agg, nil
}

func (p *Provisioner) provisionOne(
	ctx context.Context,
	log *slog.Logger,
	row Row,
	builder *reconcile.Builder,
	executor *reconcile.Executor,
	targets []directory.SubscribedSku,
	opts Options,
) report.Outcome {
	outcome := report.Outcome{
		Identifier: row.UserPrincipalName,
		Source:     row.Extra,
	}

	// A fresh credential per row, never reused across rows.
	credential, err := password.Generate(opts.PasswordLength)
	if err != nil {
		outcome.Status = reconcile.StatusFailed
		outcome.ErrorDetail = err.Error()
		return outcome
	}
	outcome.Credential = credential

	desired := builder.Desired(targets, opts.DisablePlanTokens, false, nil)
	plan := reconcile.Diff(nil, desired, nil)
	outcome.Plan = plan

	if opts.DryRun {
		outcome.Status = reconcile.StatusDryRun
		return outcome
	}

	principal, err := p.api.CreatePrincipal(ctx, createRequest(row, credential, opts.ForceChange))
	if err != nil {
		outcome.Status = reconcile.StatusFailed
		outcome.ErrorDetail = fmt.Sprintf("failed to create principal: %v", err)
		return outcome
	}

	res := executor.Execute(ctx, principal.ID, plan)
	outcome.Status = res.Status
	outcome.Attempts = res.Attempts
	if res.Err != nil {
		outcome.ErrorDetail = res.Err.Error()
	}

	log.Info("principal provisioned",
		logger.KeyPrincipal, row.UserPrincipalName,
		logger.KeyStatus, string(outcome.Status))
	return outcome
}

func createRequest(row Row, credential string, forceChange bool) *directory.CreatePrincipalRequest {
	return &directory.CreatePrincipalRequest{
		UserPrincipalName: row.UserPrincipalName,
		DisplayName:       row.DisplayName,
		MailNickname:      row.MailNickname,
		GivenName:         row.GivenName,
		Surname:           row.Surname,
		Department:        row.Department,
		JobTitle:          row.JobTitle,
		UsageLocation:     row.UsageLocation,
		AccountEnabled:    row.AccountEnabled,
		PasswordProfile: directory.PasswordProfile{
			Password:                      credential,
			ForceChangePasswordNextSignIn: forceChange,
		},
		OtherAttributes: row.Extra,
	}
}
