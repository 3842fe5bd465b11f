package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetLevel("info") })

	SetLevel("warn")
	Info("hidden")
	Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetLevel_Invalid(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetLevel("info") })

	SetLevel("loud")
	assert.Contains(t, buf.String(), "Invalid log level")
	Info("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	ErrorWithFields("action failed", map[string]interface{}{"action": "INIT"})
	assert.Contains(t, buf.String(), "action=INIT")
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", Redact(""))
	assert.Equal(t, "h*******", Redact("hunter2"))
}
