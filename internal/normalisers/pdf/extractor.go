// Package pdf extracts plain text from PDF uploads using the pdftotext
// tool from poppler-utils.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/lexchat/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// Extractor converts PDF bytes to plain text by shelling out to
// pdftotext. The command runner is injectable for testing.
type Extractor struct {
	runner driven.CommandRunner
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// New creates an extractor using the real pdftotext binary.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates an extractor with an injected command runner.
func NewWithRunner(runner driven.CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return "pdftotext is required for PDF ingestion.\n" +
		"  macOS:  brew install poppler\n" +
		"  Debian: apt install poppler-utils\n" +
		"  Fedora: dnf install poppler-utils"
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Extract converts PDF bytes to plain text. The data is written to a
// temporary file because pdftotext reads from a path.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	if mimeType != "application/pdf" {
		return "", fmt.Errorf("pdf: unsupported MIME type %q", mimeType)
	}

	tmpDir, err := os.MkdirTemp("", "lexchat-pdf-*")
	if err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpFile := filepath.Join(tmpDir, "upload.pdf")
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}

	// "-" sends the extracted text to stdout.
	output, err := e.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", tmpFile, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}
