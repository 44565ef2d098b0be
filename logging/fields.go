package logging

// Field names shared by every log line so output stays greppable.
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldRequestID   = "request_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldClientIP    = "client_ip"
	FieldUserID      = "user_id"
	FieldProjectID   = "project_id"
	FieldExpenseID   = "expense_id"
	FieldOwnerID     = "owner_id"
	FieldPercentage  = "percentage"
	FieldKind        = "kind"
	FieldReason      = "reason"
	FieldRecipients  = "recipients"
	FieldCategory    = "category"
	FieldProvider    = "provider"
	FieldCount       = "count"
	FieldErrorCode   = "code"
	FieldMessageID   = "message_id"
	FieldQueue       = "queue"
	FieldEnvironment = "environment"
	FieldAtRisk      = "at_risk"
)

// Component names.
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentStorage    = "storage"
	ComponentGate       = "notification_gate"
	ComponentDigest     = "daily_digest"
	ComponentMail       = "mail"
	ComponentQueue      = "queue"
	ComponentCategorize = "categorizer"
	ComponentWorker     = "worker"
)
