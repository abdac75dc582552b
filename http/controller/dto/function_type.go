package dto

type ParamConfigDTO struct {
	IDName  string            `json:"id_name" binding:"required,max=50"`
	Type    string            `json:"type" binding:"required"`
	Options map[string]string `json:"options"`
}

type CreateFunctionTypeRequestDTO struct {
	Key         string           `json:"key" binding:"required,min=1,max=50"`
	VerboseName string           `json:"verbose_name" binding:"required,max=50"`
	Description string           `json:"description" binding:"max=200"`
	Inputs      []ParamConfigDTO `json:"inputs"`
	Outputs     []ParamConfigDTO `json:"outputs"`
}
