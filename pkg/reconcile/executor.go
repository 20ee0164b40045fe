package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/entraops/lictl/internal/logger"
	"github.com/entraops/lictl/pkg/directory"
)

const (
	// DefaultAttempts is the retry bound for transient failures.
	DefaultAttempts = 3
	// DefaultRetryDelay is the fixed inter-attempt delay.
	DefaultRetryDelay = 5 * time.Second
)

// LicenseAssigner is the single write operation the executor needs.
// *directory.Client satisfies it.
type LicenseAssigner interface {
	AssignLicense(ctx context.Context, principalID string, req *directory.AssignLicenseRequest) (*directory.Principal, error)
}

// Executor applies reconciliation plans against the directory with
// bounded retry on transient failure classes. Execution is
// per-principal independent: one principal's failure never affects
// another's.
type Executor struct {
	api      LicenseAssigner
	attempts int
	delay    time.Duration
	dryRun   bool
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithAttempts sets the maximum number of attempts for transient
// failures. Values below 1 are coerced to 1.
func WithAttempts(n int) ExecutorOption {
	return func(e *Executor) {
		if n < 1 {
			n = 1
		}
		e.attempts = n
	}
}

// WithRetryDelay sets the fixed delay between attempts.
func WithRetryDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.delay = d }
}

// WithDryRun makes Execute record the plan without calling the API.
func WithDryRun(dryRun bool) ExecutorOption {
	return func(e *Executor) { e.dryRun = dryRun }
}

// NewExecutor creates an Executor over the given API.
func NewExecutor(api LicenseAssigner, opts ...ExecutorOption) *Executor {
	e := &Executor{
		api:      api,
		attempts: DefaultAttempts,
		delay:    DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of executing one principal's plan.
type Result struct {
	Status   Status
	Attempts int
	Err      error
}

// Execute applies one principal's plan as a single combined
// add/remove call. The API accepts both directions at once, so a SKU
// swap never leaves the principal momentarily unlicensed.
//
// Transient failures (rate limiting, capacity) are retried up to the
// configured bound with a fixed delay; any other failure class fails
// immediately. Exhausting retries is reported distinctly from a
// permanent failure.
func (e *Executor) Execute(ctx context.Context, principalID string, plan Plan) Result {
	if plan.IsNoOp() {
		return Result{Status: StatusSkippedNoOp}
	}

	if e.dryRun {
		return Result{Status: StatusDryRun}
	}

	req := &directory.AssignLicenseRequest{
		RemoveLicenses: plan.RemoveSkuIDs,
	}
	for _, add := range plan.AddAssignments {
		req.AddLicenses = append(req.AddLicenses, directory.LicenseAssignment{
			SkuID:         add.SkuID,
			DisabledPlans: add.DisabledPlanIDs,
		})
	}

	attempts := 0
	operation := func() error {
		attempts++
		start := time.Now()
		_, err := e.api.AssignLicense(ctx, principalID, req)
		if err == nil {
			logger.Debug("license assignment applied",
				logger.KeyPrincipal, principalID,
				logger.KeyAttempt, attempts,
				logger.KeyDurationMs, logger.Duration(start))
			return nil
		}
		if directory.IsTransient(err) {
			logger.Warn("transient directory failure, will retry",
				logger.KeyPrincipal, principalID,
				logger.KeyAttempt, attempts,
				logger.KeyError, err.Error())
			return err
		}
		return backoff.Permanent(err)
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(e.delay), uint64(e.attempts-1)),
		ctx,
	)

	err := backoff.Retry(operation, bo)
	if err == nil {
		return Result{Status: StatusSuccess, Attempts: attempts}
	}

	if directory.IsTransient(err) {
		err = fmt.Errorf("gave up after %d attempts: %w", attempts, err)
	}
	return Result{Status: StatusFailed, Attempts: attempts, Err: err}
}
