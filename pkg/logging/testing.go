package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// DisableForTest silences the default logger for the duration of a test.
func DisableForTest(t testing.TB) {
	t.Helper()

	original := Default()
	SetDefault(Nop)

	t.Cleanup(func() {
		SetDefault(*original)
	})
}

// CaptureForTest redirects the default logger into a buffer for the
// duration of a test and returns it for inspection.
func CaptureForTest(t testing.TB) *bytes.Buffer {
	t.Helper()

	buf := &bytes.Buffer{}
	original := Default()
	oldLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	SetDefault(New(buf).Level(zerolog.TraceLevel))

	t.Cleanup(func() {
		zerolog.SetGlobalLevel(oldLevel)
		SetDefault(*original)
	})

	return buf
}

// LogLines splits captured output into individual log lines.
func LogLines(buf *bytes.Buffer) []string {
	output := strings.TrimSpace(buf.String())
	if output == "" {
		return nil
	}
	return strings.Split(output, "\n")
}
