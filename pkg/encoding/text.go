// Package encoding provides text and byte-stream transforms used by the
// game's asset containers.
package encoding

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodeText converts a length-prefixed string payload to UTF-8.
// Trailing NUL padding is removed. Payloads that are not valid UTF-8 are
// treated as Windows-1252, which is what the PC tooling wrote.
func DecodeText(data []byte) string {
	data = TrimNullBytes(data)
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		// Return as-is if decoding fails
		return string(data)
	}
	return string(result)
}

// EncodeText converts UTF-8 text to Windows-1252 bytes when every rune is
// representable, and returns the UTF-8 bytes unchanged otherwise.
func EncodeText(s string) []byte {
	result, _, err := transform.Bytes(charmap.Windows1252.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}
