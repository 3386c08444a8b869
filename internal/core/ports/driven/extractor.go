package driven

import "context"

// Extractor converts an uploaded file's bytes into plain text.
// The ingestion pipeline only ever sees extracted text; binary formats
// never cross the core boundary.
type Extractor interface {
	// Extract returns the plain text content of the file.
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)

	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string
}

// CommandRunner executes an external command and returns its stdout.
// Extractors that shell out (pdftotext) take a runner so tests can
// substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
