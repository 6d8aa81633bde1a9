package drawing

import (
	"encoding/base64"
	"strings"
)

// DecodePayload converts the opaque submitted payload into raw image
// bytes. Payloads usually arrive as base64, optionally wrapped in a data
// URI; anything that fails to decode is passed through as raw bytes so
// downstream consumers can still attempt to use it.
func DecodePayload(payload string) []byte {
	data := payload
	if idx := strings.Index(data, ";base64,"); idx >= 0 {
		data = data[idx+len(";base64,"):]
	}

	if decoded, err := base64.StdEncoding.DecodeString(data); err == nil {
		return decoded
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(data); err == nil {
		return decoded
	}
	return []byte(payload)
}
