package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return &buf
}

func TestDebugGatedByVerbose(t *testing.T) {
	buf := capture(t)

	SetVerbose(false)
	Debug("hidden %d", 1)
	Info("hidden too")
	Section("hidden section")
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Debug("visible %d", 2)
	assert.Contains(t, buf.String(), "[DEBUG] visible 2")
}

func TestWarnAlwaysPrints(t *testing.T) {
	buf := capture(t)

	SetVerbose(false)
	Warn("index at %s is stale", "/tmp/index.db")

	assert.Contains(t, buf.String(), "[WARN] index at /tmp/index.db is stale")
}
