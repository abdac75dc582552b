package dto

type CreateLogMessageRequestDTO struct {
	LogMessage string `json:"log_message" binding:"required,max=500"`
	LogLevel   string `json:"log_level" binding:"omitempty,oneof=debug info warning error"`
}

type UpdateStatusRequestDTO struct {
	StatusMethod string `json:"status_method" binding:"required"`
}

// CreateOutputRequestDTO wraps the opaque output envelope posted by a
// worker: a base64 string whose decoded bytes are a self-describing JSON
// value payload.
type CreateOutputRequestDTO struct {
	Output string `json:"output" binding:"required"`
}

// OutputPayloadDTO is the decoded shape of the output envelope.
type OutputPayloadDTO struct {
	IDName  string `json:"id_name"`
	Type    string `json:"type"`
	Charset string `json:"charset"`
	Bytes   string `json:"bytes"`
}
