// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: maps text to fixed-dimension vectors
//   - LLMService: chat-style text generation
//   - VectorIndex: durable chunk storage + nearest-neighbour search
//   - Chunker: splits document text into retrieval-sized fragments
//   - ChatStore / UserStore / DocumentStore: conversation persistence
//
// # Optional Interfaces
//
//   - Extractor: converts uploaded files to plain text. Without it, only
//     pre-extracted text can be ingested.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
