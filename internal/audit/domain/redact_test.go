package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactReplacesSensitiveKeys(t *testing.T) {
	in := map[string]any{
		"email":           "a@b.com",
		"password":        "hunter2",
		"confirmPassword": "hunter2",
		"profile": map[string]any{
			"resetPasswordToken": "tok",
			"city":               "São Paulo",
		},
		"sessions": []any{
			map[string]any{"token": "abc"},
		},
	}

	out := Redact(in).(map[string]any)

	assert.Equal(t, "a@b.com", out["email"])
	assert.Equal(t, Marker, out["password"])
	assert.Equal(t, Marker, out["confirmPassword"])
	profile := out["profile"].(map[string]any)
	assert.Equal(t, Marker, profile["resetPasswordToken"])
	assert.Equal(t, "São Paulo", profile["city"])
	session := out["sessions"].([]any)[0].(map[string]any)
	assert.Equal(t, Marker, session["token"])

	// input untouched
	assert.Equal(t, "hunter2", in["password"])
}

func TestRedactPassesScalarsThrough(t *testing.T) {
	assert.Equal(t, 42, Redact(42))
	assert.Equal(t, "x", Redact("x"))
	assert.Nil(t, Redact(nil))
}
