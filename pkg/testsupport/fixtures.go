package testsupport

import (
	"bytes"
	"context"
	"io"
	"testing"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureOutput runs a summary function that also copies its text to a
// writer, returning the text and what the writer received.
func CaptureOutput(t *testing.T, summarise func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := summarise(&buf)
	if err != nil {
		t.Fatalf("summarise: %v", err)
	}

	return out, buf.String()
}
