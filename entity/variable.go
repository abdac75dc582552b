package entity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// VariableIOT marks a variable as an input or an output of its instance.
type VariableIOT string

const (
	VariableInput  VariableIOT = "input"
	VariableOutput VariableIOT = "output"
)

// VariableType tags the scalar kind carried by a variable's byte payload.
type VariableType string

const (
	VariableTypeText     VariableType = "text"
	VariableTypeInteger  VariableType = "integer"
	VariableTypeDatetime VariableType = "datetime"
)

func (t VariableType) Valid() bool {
	switch t {
	case VariableTypeText, VariableTypeInteger, VariableTypeDatetime:
		return true
	default:
		return false
	}
}

const DefaultCharset = "utf-8"

// Variable is a typed, ranked, byte-encoded input or output value attached
// to exactly one function instance. The owning instance never changes after
// creation.
type Variable struct {
	UUID                 uuid.UUID    `json:"uuid" gorm:"type:uuid;primaryKey"`
	IOT                  VariableIOT  `json:"iot" gorm:"size:50;not null;default:'input';index"`
	IDName               string       `json:"id_name" gorm:"size:50;not null"`
	Type                 VariableType `json:"type" gorm:"size:50;not null"`
	Charset              string       `json:"charset" gorm:"size:50;not null;default:'utf-8'"`
	Bytes                []byte       `json:"bytes" gorm:"not null"`
	FunctionInstanceUUID uuid.UUID    `json:"function_instance" gorm:"type:uuid;not null;index"`
	Rank                 int          `json:"rank" gorm:"not null"`
	CreatedAt            time.Time    `json:"created" gorm:"not null;autoCreateTime"`
}

func (Variable) TableName() string {
	return "variables"
}

// EncodeText serializes a text scalar into a variable payload.
func EncodeText(value string) []byte {
	return []byte(value)
}

// EncodeInteger serializes an integer scalar into a variable payload.
func EncodeInteger(value int64) []byte {
	return []byte(strconv.FormatInt(value, 10))
}

// EncodeDatetime serializes a datetime scalar into a variable payload.
func EncodeDatetime(value time.Time) []byte {
	return []byte(value.Format(time.RFC3339))
}

// Text decodes the payload of a text variable.
func (v *Variable) Text() (string, error) {
	if v.Type != VariableTypeText {
		return "", fmt.Errorf("variable '%s' is not text, it is %s", v.IDName, v.Type)
	}
	if v.Charset != DefaultCharset {
		return "", fmt.Errorf("unsupported charset %q for variable '%s'", v.Charset, v.IDName)
	}
	return string(v.Bytes), nil
}

// Integer decodes the payload of an integer variable.
func (v *Variable) Integer() (int64, error) {
	if v.Type != VariableTypeInteger {
		return 0, fmt.Errorf("variable '%s' is not integer, it is %s", v.IDName, v.Type)
	}
	n, err := strconv.ParseInt(string(v.Bytes), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed integer payload for variable '%s': %w", v.IDName, err)
	}
	return n, nil
}

// Datetime decodes the payload of a datetime variable.
func (v *Variable) Datetime() (time.Time, error) {
	if v.Type != VariableTypeDatetime {
		return time.Time{}, fmt.Errorf("variable '%s' is not datetime, it is %s", v.IDName, v.Type)
	}
	t, err := time.Parse(time.RFC3339, string(v.Bytes))
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed datetime payload for variable '%s': %w", v.IDName, err)
	}
	return t, nil
}

// Value decodes the payload according to the variable's type tag.
func (v *Variable) Value() (interface{}, error) {
	switch v.Type {
	case VariableTypeText:
		return v.Text()
	case VariableTypeInteger:
		return v.Integer()
	case VariableTypeDatetime:
		return v.Datetime()
	default:
		return nil, fmt.Errorf("unknown variable type %q", v.Type)
	}
}
