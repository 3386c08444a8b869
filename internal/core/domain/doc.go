// Package domain defines the core business entities for lexchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: an embedded fragment of an ingested document
//   - RetrievalResult: ranked chunks returned by the vector index
//   - Turn: a single conversation turn (user or assistant)
//   - Chat / Message / User / DocumentRecord: conversation storage entities
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
