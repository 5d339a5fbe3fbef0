package logsink

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityDebug, ParseSeverity("debug"))
	assert.Equal(t, SeverityWarning, ParseSeverity(" WARN "))
	assert.Equal(t, SeverityWarning, ParseSeverity("warning"))
	assert.Equal(t, SeverityError, ParseSeverity("Error"))
	assert.Equal(t, SeverityFatal, ParseSeverity("FATAL"))
	assert.Equal(t, SeverityInfo, ParseSeverity("whatever"))
	assert.Equal(t, "warning", SeverityWarning.String())
}

func TestZerologSink(t *testing.T) {
	var buf bytes.Buffer
	sink := Zerolog(zerolog.New(&buf))

	sink.Emit(SeverityError, "option --foo is not supported.")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "option --foo is not supported.", line["message"])
}

func TestFatalDoesNotExit(t *testing.T) {
	var buf bytes.Buffer
	sink := Zerolog(zerolog.New(&buf))
	sink.Emit(SeverityFatal, "bad")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestCounter(t *testing.T) {
	rec := &Recorder{}
	c := NewCounter(rec)

	c.Emit(SeverityInfo, "hello")
	c.Emit(SeverityWarning, "careful")
	c.Emit(SeverityError, "broken")
	c.Emit(SeverityFatal, "really broken")

	assert.Equal(t, 2, c.Errors())
	assert.Equal(t, 1, c.Warnings())
	assert.Len(t, rec.Entries(), 4)
	assert.Equal(t, []string{"broken"}, rec.Messages(SeverityError))
	assert.True(t, rec.Contains("careful"))

	c.Reset()
	assert.Zero(t, c.Errors())
	assert.Zero(t, c.Warnings())
}

func TestCounterNilSink(t *testing.T) {
	c := NewCounter(nil)
	c.Emit(SeverityError, "dropped")
	assert.Equal(t, 1, c.Errors())
}
