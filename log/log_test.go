package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLevelsAndFields(t *testing.T) {
	var out bytes.Buffer
	Logger.SetOutput(&out)
	defer Logger.SetOutput(logrus.StandardLogger().Out)
	defer SetLevel(InfoLevel)

	SetLevel(InfoLevel)
	Debugf("hidden %d", 1)
	assert.Empty(t, out.String())

	SetLevel(DebugLevel)
	WithFields(map[string]any{"survey": 3, "response": 9}).Debug("response saved")
	assert.Contains(t, out.String(), "response saved")
	assert.Contains(t, out.String(), "survey=3")
	assert.Contains(t, out.String(), "response=9")

	out.Reset()
	Log(WarnLevel, "db.insert_response:", "boom")
	assert.Contains(t, out.String(), "warning")
	assert.Contains(t, out.String(), "db.insert_response: boom")
}
