package domain

// Marker replaces the value of every sensitive field in a captured
// payload.
const Marker = "[REDACTED]"

var sensitiveKeys = map[string]bool{
	"password":           true,
	"currentPassword":    true,
	"newPassword":        true,
	"confirmPassword":    true,
	"resetPasswordToken": true,
	"confirmationToken":  true,
	"token":              true,
}

// Redact walks a decoded JSON payload and replaces the value of every
// sensitive key with Marker, preserving the structure otherwise. The
// input is not modified.
func Redact(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			if sensitiveKeys[k] {
				out[k] = Marker
			} else {
				out[k] = Redact(inner)
			}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = Redact(inner)
		}
		return out
	default:
		return value
	}
}
