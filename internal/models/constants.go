package models

// Billing cycles
const (
	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
	BillingCycleWeekly  = "weekly"
)

// Subscription statuses
const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCancelled = "cancelled"
)

// CancellationPending is the status of a new cancellation request.
const CancellationPending = "pending"

// Subscription sources
const (
	SourceDetected = "detected"
	SourceManual   = "manual"
)

// Categories
const (
	CategoryEntertainment = "Entertainment"
	CategorySoftware      = "Software"
	CategoryAITools       = "AI Tools"
	CategoryHealth        = "Health"
	CategoryNews          = "News"
	CategoryOther         = "Other"
)

// UnknownMerchant is the merchant key of a transaction carrying neither a
// merchant name nor a generic name.
const UnknownMerchant = "Unknown"

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
