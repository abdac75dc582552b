package entity

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// IDNameRegex constrains every id_name used by parameter configs and
// variables.
var IDNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ParamConfig describes one declared input or output of a FunctionType.
// Rank is the position of the entry in the submitted ordered list.
type ParamConfig struct {
	IDName  string            `json:"id_name"`
	Type    VariableType      `json:"type"`
	Rank    int               `json:"rank"`
	Options map[string]string `json:"options,omitempty"`
}

// Validate checks the config against the id_name and type grammar.
func (p ParamConfig) Validate() error {
	if p.IDName == "" {
		return fmt.Errorf("'id_name' field is required")
	}
	if !IDNameRegex.MatchString(p.IDName) {
		return fmt.Errorf("'id_name' %q cannot contain special characters, it has to match %s", p.IDName, IDNameRegex)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("'type' %q is not a valid variable type", p.Type)
	}
	return nil
}

// FunctionType is a reusable computation signature: a globally unique key
// plus ordered, typed input and output parameter configs. Immutable once
// registered.
type FunctionType struct {
	UUID        uuid.UUID      `json:"uuid" gorm:"type:uuid;primaryKey"`
	Key         string         `json:"key" gorm:"size:50;uniqueIndex;not null"`
	VerboseName string         `json:"verbose_name" gorm:"size:50;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Inputs      datatypes.JSON `json:"inputs" gorm:"type:jsonb"`
	Outputs     datatypes.JSON `json:"outputs" gorm:"type:jsonb"`
	AccountUUID uuid.UUID      `json:"account" gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time      `json:"created" gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated" gorm:"autoUpdateTime"`

	Account *Account `json:"-" gorm:"foreignKey:AccountUUID;constraint:OnDelete:CASCADE"`
}

func (FunctionType) TableName() string {
	return "function_types"
}

// InputConfigs decodes the stored input parameter list. A null column means
// the function takes no inputs.
func (ft *FunctionType) InputConfigs() ([]ParamConfig, error) {
	return decodeParamConfigs(ft.Inputs)
}

func (ft *FunctionType) OutputConfigs() ([]ParamConfig, error) {
	return decodeParamConfigs(ft.Outputs)
}

// GetInputConfig resolves a declared input by id_name.
func (ft *FunctionType) GetInputConfig(idName string) (*ParamConfig, error) {
	configs, err := ft.InputConfigs()
	if err != nil {
		return nil, err
	}
	for i := range configs {
		if configs[i].IDName == idName {
			return &configs[i], nil
		}
	}
	return nil, fmt.Errorf("'%s' is not a valid input of function_type '%s'", idName, ft.UUID)
}

// EncodeParamConfigs validates an ordered parameter list and serializes it
// for storage, stamping each entry's rank with its position.
func EncodeParamConfigs(configs []ParamConfig) (datatypes.JSON, error) {
	if len(configs) == 0 {
		return nil, nil
	}
	for i := range configs {
		configs[i].Rank = i
		if err := configs[i].Validate(); err != nil {
			return nil, err
		}
	}
	data, err := json.Marshal(configs)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func decodeParamConfigs(raw datatypes.JSON) ([]ParamConfig, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var configs []ParamConfig
	if err := json.Unmarshal(raw, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}
