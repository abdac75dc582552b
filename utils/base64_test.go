package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeB64RoundTrip(t *testing.T) {
	encoded := EncodeB64([]byte("stream input payload"))
	decoded, err := DecodeB64(encoded)
	assert.NoError(t, err)
	assert.Equal(t, []byte("stream input payload"), decoded)
}

func TestDecodeB64RejectsPlainText(t *testing.T) {
	_, err := DecodeB64("definitely not base64!!")
	assert.ErrorIs(t, err, ErrNotBase64)
}

func TestValidateB64(t *testing.T) {
	assert.NoError(t, ValidateB64(EncodeB64([]byte("ok"))))
	assert.ErrorIs(t, ValidateB64("%%%"), ErrNotBase64)
}

func TestDecodeB64EmptyPayload(t *testing.T) {
	// Encoded empty text is a legal payload.
	assert.Equal(t, "", EncodeB64(nil))
	assert.NoError(t, ValidateB64(""))

	decoded, err := DecodeB64("")
	assert.NoError(t, err)
	assert.Empty(t, decoded)
}
