package utils

import (
	"encoding/base64"
	"errors"
	"regexp"
)

// Base64Regex matches the standard base64 alphabet with padding. Transport
// payloads must satisfy it before they are decoded.
var Base64Regex = regexp.MustCompile(`^(?:[A-Za-z0-9+/]{4})*(?:[A-Za-z0-9+/]{2}==|[A-Za-z0-9+/]{3}=)?$`)

var ErrNotBase64 = errors.New("must be bytes encoded in base64")

// ValidateB64 checks a caller-supplied payload against the base64 grammar.
// The empty string is valid base64: it decodes to an empty payload.
func ValidateB64(body string) error {
	if !Base64Regex.MatchString(body) {
		return ErrNotBase64
	}
	return nil
}

// DecodeB64 validates and decodes a base64 transport payload.
func DecodeB64(body string) ([]byte, error) {
	if err := ValidateB64(body); err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(body)
}

// EncodeB64 encodes raw bytes for transport.
func EncodeB64(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}
