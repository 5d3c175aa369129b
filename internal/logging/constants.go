package logging

// Standardized field names for structured logging.
const (
	FieldHolderID      = "holder_id"
	FieldMerchantKey   = "merchant_key"
	FieldTransactionID = "transaction_id"
	FieldCategory      = "category"
	FieldIcon          = "icon"
	FieldAmount        = "amount"
	FieldOperation     = "operation"
	FieldStatus        = "status"
	FieldError         = "error"
	FieldDuration      = "duration_ms"
	FieldCount         = "count"
	FieldComponent     = "component"
	FieldInputFile     = "input_file"
	FieldOutputFile    = "output_file"
)
