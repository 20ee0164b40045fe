package logger

// Standard field keys for structured logging. Use these keys
// consistently across log statements so runs can be grepped and
// aggregated by principal, SKU, or source.
const (
	KeyRunID     = "run_id"    // Unique id of one reconciliation run
	KeyWorkflow  = "workflow"  // assign, provision
	KeyPrincipal = "principal" // Principal identifier (UPN/email)
	KeySku       = "sku"       // SKU part number or id
	KeyPlan      = "plan"      // Service plan name or id
	KeySource    = "source"    // Input source (CSV path, flag)
	KeyColumn    = "column"    // CSV column chosen for identifiers
	KeyAttempt   = "attempt"   // Execution attempt number (1-based)
	KeyStatus    = "status"    // Outcome status
	KeyCount     = "count"     // Generic count field
	KeyError     = "error"     // Error message

	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
)
