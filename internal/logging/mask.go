package logging

import (
	"strings"

	masker "github.com/goliatone/go-masker"
)

const maskRule = "preserveEnds(2,2)"

var credentialFields = []string{
	"appKey", "appSecret", "tokenId", "password",
}

func init() {
	for _, field := range credentialFields {
		masker.Default.RegisterMaskField(field, maskRule)
	}
}

// Mask returns a partially hidden copy of value that is safe for debug output.
// Short values are hidden entirely.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= 8 {
		return strings.Repeat("*", len(runes))
	}
	if masked, err := masker.Default.String(maskRule, value); err == nil {
		return masked
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}

// MaskFields masks the credential-bearing keys of a decoded JSON object in place
// and returns it.
func MaskFields(fields map[string]interface{}) map[string]interface{} {
	for _, key := range credentialFields {
		if v, ok := fields[key].(string); ok {
			fields[key] = Mask(v)
		}
	}
	return fields
}
