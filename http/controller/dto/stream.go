package dto

type StreamMetadataDTO struct {
	Workspace string `json:"workspace" binding:"required,max=50"`
}

type StreamSpecDTO struct {
	Name      string            `json:"name" binding:"required,min=4,max=50"`
	Functions []FunctionSpecDTO `json:"functions"`
}

type CreateStreamRequestDTO struct {
	Spec     StreamSpecDTO     `json:"spec" binding:"required"`
	Metadata StreamMetadataDTO `json:"metadata" binding:"required"`
}

type FunctionSpecDTO struct {
	FunctionType string         `json:"function_type" binding:"required,uuid"`
	Position     map[string]int `json:"position" binding:"required"`
	Inputs       []InputSpecDTO `json:"inputs"`
}

// InputSpecDTO binds one input value for a function instance. Bytes is
// base64 transport text and may be empty for an empty payload; type is
// optional and cross-checked against the declared input config when
// present.
type InputSpecDTO struct {
	IDName  string `json:"id_name"`
	Type    string `json:"type"`
	Charset string `json:"charset"`
	Bytes   string `json:"bytes"`
}
