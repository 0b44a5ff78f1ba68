package audithook

// Action constants for audit events.
const (
	// Content actions
	ActionContentRegistered = "content.registered"

	// Pass actions
	ActionPassIssued      = "pass.issued"
	ActionPassTransferred = "pass.transferred"
	ActionPassesPurged    = "passes.purged"

	// Access actions
	ActionAccessChecked = "access.checked"
	ActionAccessDenied  = "access.denied"

	// Treasury actions
	ActionFundsWithdrawn   = "funds.withdrawn"
	ActionWithdrawalFailed = "withdrawal.failed"

	// Price actions
	ActionPriceChanged = "price.changed"
)

// Resource constants for audit events.
const (
	ResourceContent  = "content"
	ResourcePass     = "pass"
	ResourceAccess   = "access"
	ResourceTreasury = "treasury"
	ResourcePrice    = "price"
)

// Category constants for audit events.
const (
	CategoryRegistry = "registry"
	CategoryAccess   = "access"
	CategoryPayment  = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
