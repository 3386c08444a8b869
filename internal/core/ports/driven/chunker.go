package driven

// Chunker splits extracted document text into retrieval-sized fragments.
// Splitting is deterministic: the same input always yields the same
// sequence of chunks.
type Chunker interface {
	// Split returns contiguous, possibly overlapping substrings of text,
	// each no longer than the configured chunk size. Empty or
	// whitespace-only input yields nil.
	Split(text string) []string
}
