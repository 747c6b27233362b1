package logging

// Field names shared by every component so log output stays filterable.
const (
	FieldFile       = "file_path"
	FieldOwner      = "owner"
	FieldRow        = "row"
	FieldStage      = "stage"
	FieldCategory   = "category"
	FieldSource     = "source"
	FieldReason     = "reason"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldEncoding   = "encoding"
	FieldPattern    = "pattern"
	FieldKeyType    = "key_type"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
)
