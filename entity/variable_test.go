package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVariableTextRoundTrip(t *testing.T) {
	v := &Variable{
		IDName:  "greeting",
		Type:    VariableTypeText,
		Charset: DefaultCharset,
		Bytes:   EncodeText("hello world"),
	}
	got, err := v.Text()
	assert.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestVariableTextRejectsUnknownCharset(t *testing.T) {
	v := &Variable{
		IDName:  "greeting",
		Type:    VariableTypeText,
		Charset: "latin-1",
		Bytes:   EncodeText("hello"),
	}
	_, err := v.Text()
	assert.Error(t, err)
}

func TestVariableIntegerRoundTrip(t *testing.T) {
	v := &Variable{
		IDName:  "count",
		Type:    VariableTypeInteger,
		Charset: DefaultCharset,
		Bytes:   EncodeInteger(-42),
	}
	got, err := v.Integer()
	assert.NoError(t, err)
	assert.Equal(t, int64(-42), got)

	v.Bytes = []byte("not a number")
	_, err = v.Integer()
	assert.Error(t, err)
}

func TestVariableDatetimeRoundTrip(t *testing.T) {
	when := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	v := &Variable{
		IDName:  "deadline",
		Type:    VariableTypeDatetime,
		Charset: DefaultCharset,
		Bytes:   EncodeDatetime(when),
	}
	got, err := v.Datetime()
	assert.NoError(t, err)
	assert.True(t, when.Equal(got))
}

func TestVariableValueDispatchesOnType(t *testing.T) {
	text := &Variable{Type: VariableTypeText, Charset: DefaultCharset, Bytes: EncodeText("a")}
	got, err := text.Value()
	assert.NoError(t, err)
	assert.Equal(t, "a", got)

	integer := &Variable{Type: VariableTypeInteger, Bytes: EncodeInteger(7)}
	got, err = integer.Value()
	assert.NoError(t, err)
	assert.Equal(t, int64(7), got)

	// Type mismatch between tag and accessor fails.
	_, err = text.Integer()
	assert.Error(t, err)

	unknown := &Variable{Type: "blob"}
	_, err = unknown.Value()
	assert.Error(t, err)
}

func TestVariableTypeValid(t *testing.T) {
	assert.True(t, VariableTypeText.Valid())
	assert.True(t, VariableTypeInteger.Valid())
	assert.True(t, VariableTypeDatetime.Valid())
	assert.False(t, VariableType("float").Valid())
	assert.False(t, VariableType("").Valid())
}
