// Package chunker provides a boundary-preferring text chunking processor.
package chunker

import (
	"strings"

	"github.com/custodia-labs/lexchat/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker splits text into overlapping chunks, preferring to break at
// natural boundaries (paragraph, then line, then sentence, then word)
// so mid-sentence content is not severed when a better break point
// fits within the chunk size.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Split splits text into chunks of at most the configured size, with
// consecutive chunks sharing overlap characters of context. Splitting is
// deterministic. Whitespace-only input yields nil; input shorter than
// the chunk size yields a single trimmed chunk.
func (c *Chunker) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) <= c.chunkSize {
		return []string{trimmed}
	}

	estimated := (len(trimmed) / (c.chunkSize - c.overlap)) + 1
	chunks := make([]string, 0, estimated)

	start := 0
	for start < len(trimmed) {
		end := start + c.chunkSize
		if end >= len(trimmed) {
			if tail := strings.TrimSpace(trimmed[start:]); tail != "" {
				chunks = append(chunks, tail)
			}
			break
		}

		cut := c.cutPoint(trimmed[start:end])
		if chunk := strings.TrimSpace(trimmed[start : start+cut]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := start + cut - c.overlap
		if next <= start {
			// Guarantee forward progress when overlap swallows the cut.
			next = start + cut
		}
		start = next
	}

	return chunks
}

// separators, in preference order. The empty fallback is a hard cut at
// the window edge.
var separators = []string{"\n\n", "\n", ". ", " "}

// cutPoint picks the furthest natural boundary within the window.
// Boundaries in the first half of the window are ignored so a stray
// early paragraph break cannot produce a degenerate sliver chunk.
func (c *Chunker) cutPoint(window string) int {
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx > c.chunkSize/2 {
			return idx + len(sep)
		}
	}
	return len(window)
}
